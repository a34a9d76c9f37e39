package middlewares

import (
	"github.com/gin-gonic/gin"
)

// abortError writes the same envelope as handlers.RespondError. It lives here
// because handlers imports this package.
func abortError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
