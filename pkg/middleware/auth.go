package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const adminEmailKey = "admin_email"

// AdminIdentity returns a middleware that resolves the acting admin for
// audit attribution. Authentication is intentionally stubbed: every
// request is accepted. The identity comes from the X-Admin-Email header
// when present, otherwise the configured default.
func AdminIdentity(defaultEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader("X-Admin-Email"))
		if email == "" {
			email = defaultEmail
		}
		c.Set(adminEmailKey, email)
		c.Next()
	}
}

// AdminEmail returns the admin identity resolved by AdminIdentity, or
// the empty string when the middleware did not run.
func AdminEmail(c *gin.Context) string {
	if v, ok := c.Get(adminEmailKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
