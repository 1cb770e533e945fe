package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

// TokenConfig configures signing of access and refresh tokens.
type TokenConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// TokenService issues and validates HS256 JWTs. Every service shares the
// secret so tokens minted by the user service are accepted everywhere.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	if config.AccessExpiry <= 0 {
		config.AccessExpiry = 24 * time.Hour
	}
	if config.RefreshExpiry <= 0 {
		config.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &TokenService{config: config, now: time.Now}
}

// AccessExpiry returns the configured access token lifetime.
func (s *TokenService) AccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

// IssueAccess signs an access token for the user.
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	return s.issue(user, models.TokenTypeAccess, s.config.AccessExpiry)
}

// IssueRefresh signs a refresh token for the user.
func (s *TokenService) IssueRefresh(user *models.User) (string, error) {
	return s.issue(user, models.TokenTypeRefresh, s.config.RefreshExpiry)
}

func (s *TokenService) issue(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		UserID:    user.ID,
		Role:      user.Role,
		Email:     user.Email,
		FullName:  user.FullName,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// ValidateToken parses an access token and returns its claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	return s.validate(tokenString, models.TokenTypeAccess)
}

// ValidateRefresh parses a refresh token and returns its claims.
func (s *TokenService) ValidateRefresh(tokenString string) (*models.JWTClaims, error) {
	return s.validate(tokenString, models.TokenTypeRefresh)
}

func (s *TokenService) validate(tokenString, tokenType string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.TokenType != tokenType {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected token type")
	}
	return claims, nil
}
