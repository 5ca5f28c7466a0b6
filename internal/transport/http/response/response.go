package response

import (
	"github.com/gin-gonic/gin"

	"ponyfiction/internal/pkg/httperr"
)

// Error writes err with its own status, in the same shape GraphQL errors
// carry in their extensions.
func Error(c *gin.Context, err *httperr.HTTPError) {
	c.JSON(err.Status, gin.H{
		"errors": []gin.H{{
			"message":    err.Message,
			"extensions": err.Extensions(),
		}},
	})
}
