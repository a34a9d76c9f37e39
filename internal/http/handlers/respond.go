package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/blob"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondUpstream reports a failed blob store call as 502 with the upstream
// status and body when there was one.
func RespondUpstream(ctx *gin.Context, message string, err error) {
	details := gin.H{}

	var te *blob.TransferError
	if errors.As(err, &te) {
		if te.StatusCode != 0 {
			details["status"] = te.StatusCode
		}
		if te.Body != "" {
			details["body"] = te.Body
		}
		if errors.Is(err, blob.ErrCircuitOpen) {
			details["reason"] = "circuit_open"
		}
	}

	slog.Default().WarnContext(ctx.Request.Context(), "blob transfer failed",
		"err", err, "request_id", requestIDFrom(ctx))

	RespondError(ctx, http.StatusBadGateway, "upstream_error", message, details)
}

// RespondInternal logs err and returns a 500 whose details carry the raw error text.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", err, "request_id", requestIDFrom(ctx))

	var details interface{}
	if err != nil {
		details = gin.H{"error": err.Error()}
	}

	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, details)
}

// respondPolicy maps an access.Authorize error to 401/403.
func respondPolicy(ctx *gin.Context, err error, forbiddenMsg string) {
	if errors.Is(err, access.ErrUnauthenticated) {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}
	RespondForbidden(ctx, forbiddenMsg)
}
