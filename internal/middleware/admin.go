package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CronKeyRequired guards scheduler endpoints with the shared X-CRON-KEY header. An empty
// configured key disables the endpoints entirely.
func CronKeyRequired(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-CRON-KEY")
		if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
