package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xolodev/xolo-go/internal/infrastructure/security"
	"github.com/xolodev/xolo-go/pkg/config"
)

// DashboardAuthMiddleware protects dashboard endpoints with a bearer JWT.
// When no dashboard password is configured, access is open.
func DashboardAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.DashboardPassword == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[len("Bearer "):]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := security.ValidateDashboardToken(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
