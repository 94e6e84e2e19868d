// middlewares/auth_middleware.go
package middlewares

import (
	"net/http"
	"os"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/utils"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards the maintenance API with an HS256 bearer token
// signed with ADMIN_JWT_SECRET.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		secret := []byte(os.Getenv("ADMIN_JWT_SECRET"))
		if len(secret) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured: ADMIN_JWT_SECRET not set"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := utils.ParseAdminToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("admin", subject)
		c.Next()
	}
}
