package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/shared/server/respond"
)

// Auth requires "Authorization: Bearer <token>" on every route except the
// public ones. Outside production an empty token leaves the API open; in
// production an empty token rejects everything.
func Auth(token, env string, public ...string) gin.HandlerFunc {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if _, ok := open[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if token == "" {
			if env == "production" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "api token not configured", nil)
				return
			}
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		got := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Next()
	}
}
