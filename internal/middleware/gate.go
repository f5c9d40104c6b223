package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// GateExemptPrefixes 是无需访问口令即可访问的路径前缀。
var GateExemptPrefixes = []string{"/gate", "/api/v1/gate", "/admin", "/api/v1/admin", "/healthz"}

// GateMiddleware 要求请求携带与口令令牌一致的 cookie，否则重定向到口令页并保留原路径。
func GateMiddleware(gate *token.GateToken, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isGateExempt(c.Request.URL.Path) {
			c.Next()
			return
		}
		if cookie, err := c.Cookie(cookieName); err == nil && gate.Valid(cookie) {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, "/gate?from="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func isGateExempt(path string) bool {
	for _, prefix := range GateExemptPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
