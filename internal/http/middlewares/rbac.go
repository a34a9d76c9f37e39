package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// Allow gates routes whose decision does not depend on a particular file.
// Per-file checks (raw view, edit) happen in the handler once the owner is known.
func Allow(op access.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := access.Authorize(actorctx.ActorFrom(c.Request.Context()), access.NoOwner, op)

		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, access.ErrUnauthenticated):
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
		default:
			msg := "Forbidden"
			if op == access.ListAllFiles || op == access.ViewFileDetail {
				msg = "Forbidden: admins only"
			}
			abortError(c, http.StatusForbidden, "forbidden", msg)
		}
	}
}
