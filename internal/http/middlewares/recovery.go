package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 internal_error envelope instead of gin's bare 500.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered",
			"err", fmt.Sprint(recovered),
			"request_id", c.GetString(CtxRequestID),
			"stack", string(debug.Stack()),
		)

		abortError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	})
}
