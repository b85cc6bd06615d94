package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoleProtection lets a request through when the user holds one of roles, or all of them when strict is set.
// With authMode off every request passes.
func RoleProtection(roles []UserRole, strict, authMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authMode {
			c.Next()
			return
		}

		user, ok := GetUser(c)
		if !ok {
			log.Error().Str("path", c.FullPath()).Msg(ErrInvalidToken.Message)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrInvalidToken)
			return
		}

		if !hasRoles(user.AllRoles(), roles, strict) {
			log.Warn().
				Str("user", user.Email).
				Interface("required", roles).
				Bool("strict", strict).
				Str("path", c.FullPath()).
				Msg(ErrNoPrivileges.Message)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrNoPrivileges)
			return
		}

		c.Next()
	}
}

func hasRoles(granted, required []UserRole, all bool) bool {
	for _, role := range required {
		found := contains(granted, role)
		if all && !found {
			return false
		}
		if !all && found {
			return true
		}
	}
	return all
}

func contains[T comparable](set []T, target T) bool {
	for _, value := range set {
		if value == target {
			return true
		}
	}
	return false
}
