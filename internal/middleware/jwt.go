package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// ServiceUserID is the subject recorded for calls authenticated by service token.
const ServiceUserID = "service"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. When serviceToken is
// set, a matching X-Service-Token header authenticates a sibling service instead.
func JWT(tokens tokenValidator, serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if presented := c.GetHeader(client.ServiceTokenHeader); presented != "" {
			if serviceToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(serviceToken)) != 1 {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid service token"))
				c.Abort()
				return
			}
			c.Set(ContextUserKey, &models.JWTClaims{UserID: ServiceUserID, Role: models.RoleService, TokenType: models.TokenTypeAccess})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
