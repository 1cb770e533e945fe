package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

// Self admits a caller whose user id equals the route param passed to RBAC.
const Self = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(selfParam string, allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == Self {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param(selfParam); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return RBAC("", rolesToStrings(roles)...)
}

// RequireRolesOrSelf also admits the user named by the selfParam route param.
func RequireRolesOrSelf(selfParam string, roles ...models.UserRole) gin.HandlerFunc {
	return RBAC(selfParam, append(rolesToStrings(roles), Self)...)
}

func rolesToStrings(roles []models.UserRole) []string {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return allowed
}
