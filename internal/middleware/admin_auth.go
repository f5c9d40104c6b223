package middleware

import (
	"net/http"
	"strings"

	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 校验 Authorization 头中的管理员 JWT，并将 claims 存入上下文。
func AdminAuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := jwtManager.VerifyAdmin(strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
