package middleware

import (
	"errors"
	"net/http"
	"strings"

	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/integrations"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the middleware in this package.
const (
	UserKey     = "user"
	TokenKey    = "token"
	LocationKey = "location"
	LoggerKey   = "logger"
)

// AuthMiddleware resolves the bearer token through the active auth provider
// and stores the user in the context. With optional set, requests without a
// usable token pass through anonymously.
func AuthMiddleware(registry *integrations.Registry, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if optional {
				c.Next()
				return
			}
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
			return
		}

		svc, err := integrations.Resolve[auth.Service](c.Request.Context(), registry, integrations.CategoryAuth)
		if err != nil {
			utils.JSONError(c, http.StatusServiceUnavailable, "Authentication is unavailable", err.Error())
			return
		}

		user, err := svc.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case optional && !errors.Is(err, auth.ErrSuspended):
			zap.L().Debug("Ignoring invalid optional token", zap.Error(err))
			c.Next()
			return
		case errors.Is(err, auth.ErrSuspended):
			utils.JSONError(c, http.StatusForbidden, "Account suspended", "")
			return
		default:
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", "")
			return
		}

		c.Set(UserKey, user)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
