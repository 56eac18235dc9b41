package middleware

import (
	"net/http"

	"meramarket/utils"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware admits only users holding the admin role. It must run
// after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.JSONError(c, http.StatusUnauthorized, "Authentication required", "")
			return
		}
		if !user.IsAdmin() {
			utils.JSONError(c, http.StatusForbidden, "Unauthorized admin access", "")
			return
		}
		c.Next()
	}
}
