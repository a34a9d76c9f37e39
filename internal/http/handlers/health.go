package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/docvault/internal/observability"
	"github.com/gin-gonic/gin"
)

// BreakerState reports the blob store circuit; *blob.Protected satisfies it.
type BreakerState interface {
	State() string
}

type HealthHandler struct {
	ping      func(ctx context.Context) error
	breaker   BreakerState
	blobStats *observability.BlobStats

	database      string
	storageDriver string
	blobDriver    string
}

type HealthDeps struct {
	Ping          func(ctx context.Context) error // nil when there is no database
	Breaker       BreakerState
	BlobStats     *observability.BlobStats
	Database      string // already redacted
	StorageDriver string
	BlobDriver    string
}

func NewHealthHandler(d HealthDeps) *HealthHandler {
	return &HealthHandler{
		ping:          d.Ping,
		breaker:       d.Breaker,
		blobStats:     d.BlobStats,
		database:      d.Database,
		storageDriver: d.StorageDriver,
		blobDriver:    d.BlobDriver,
	}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz checks the database; an open blob circuit is reported but does not fail readiness.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	body := gin.H{"status": "ready"}

	if h.breaker != nil {
		body["blob_circuit"] = h.breaker.State()
	}
	if h.blobStats != nil {
		body["blob"] = h.blobStats.Snapshot()
	}

	if h.ping != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()

		if err := h.ping(cctx); err != nil {
			body["status"] = "not_ready"
			body["database"] = "unreachable"
			ctx.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}

	ctx.JSON(http.StatusOK, body)
}

// Ping is the public diagnostic endpoint. It names the database without credentials.
func (h *HealthHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"database":       h.database,
		"storage_driver": h.storageDriver,
		"blob_driver":    h.blobDriver,
	})
}
