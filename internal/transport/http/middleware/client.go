package middleware

import (
	"github.com/gin-gonic/gin"

	"ponyfiction/internal/app"
)

const ContextClientKey = "client"

// Client records the user agent and IP the request came from.
func Client() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextClientKey, app.ClientInfo{
			UserAgent: c.Request.UserAgent(),
			IP:        c.ClientIP(),
		})
		c.Next()
	}
}

func ClientFrom(c *gin.Context) app.ClientInfo {
	v, _ := c.Get(ContextClientKey)
	info, _ := v.(app.ClientInfo)
	return info
}
