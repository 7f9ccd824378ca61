package middleware

import (
	"net/http"
	"strings"

	"glowdesk/utils"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards dashboard routes with the operator JWT issued
// by the login endpoint.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		isAdmin, err := utils.IsAdminToken(tokenString)
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
