package blob

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/docvault/internal/config"
)

// Open builds the configured driver and wraps it in a Protected store.
func Open(ctx context.Context, cfg config.BlobConfig, recorder Recorder) (*Protected, error) {
	var (
		inner Store
		err   error
	)

	switch cfg.Driver {
	case "http":
		inner = NewHTTPStore(cfg.UploadURL, cfg.Token, &http.Client{})
	case "minio":
		var m *MinioStore
		m, err = NewMinioStore(MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			PublicURL: cfg.PublicURL,
		})
		if err == nil {
			err = m.EnsureBucket(ctx)
		}
		inner = m
	case "s3":
		inner, err = NewS3Store(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
			PublicURL: cfg.PublicURL,
		})
	case "memory":
		inner = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", cfg.Driver, err)
	}

	return NewProtected(inner, ProtectedConfig{
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         time.Duration(cfg.BreakerCooldownSeconds) * time.Second,
		HalfOpenMaxCalls: 1,
	}, recorder), nil
}
