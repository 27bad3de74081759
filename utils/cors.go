package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware enables CORS for browser clients. An empty allow list reflects any origin.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowSet[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowSet[origin]; ok || len(allowSet) == 0 {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
