package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/docvault/internal/auth"
	"github.com/geocoder89/docvault/internal/blob"
	"github.com/geocoder89/docvault/internal/config"
	"github.com/geocoder89/docvault/internal/credentials"
	"github.com/geocoder89/docvault/internal/db"
	httpx "github.com/geocoder89/docvault/internal/http"
	"github.com/geocoder89/docvault/internal/http/handlers"
	"github.com/geocoder89/docvault/internal/observability"
	"github.com/geocoder89/docvault/internal/ratelimit"
	"github.com/geocoder89/docvault/internal/redisclient"
	"github.com/geocoder89/docvault/internal/registry"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET is not set; signing tokens with the built-in dev key", "env", cfg.Env)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
		Env:         cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// storage
	store, err := openStorage(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer store.close()

	created, err := db.EnsureAdminUser(ctx, store.users, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	// blob store
	blobs, err := blob.Open(ctx, cfg.Blob, prom)
	if err != nil {
		return err
	}

	// auth rate limiting
	limiter, closeLimiter, err := openLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// services
	creds := credentials.NewService(store.users, credentials.BcryptHasher())
	tokens := auth.NewManager(cfg.Secret(), cfg.AccessTTL(), cfg.RefreshTTL())
	refresher := auth.NewRefresher(tokens, store.users)
	files := registry.NewService(store.files)

	router := httpx.NewRouter(httpx.Deps{
		Config:    cfg,
		Log:       log,
		Prom:      prom,
		Gatherer:  reg,
		Auth:      handlers.NewAuthHandler(creds, tokens, refresher, prom),
		Files:     handlers.NewFilesHandler(files, blobs),
		Dashboard: handlers.NewDashboardHandler(store.users),
		Health: handlers.NewHealthHandler(handlers.HealthDeps{
			Ping:          store.ping,
			Breaker:       blobs,
			BlobStats:     prom.Blob,
			Database:      cfg.DBSummary(),
			StorageDriver: cfg.StorageDriver,
			BlobDriver:    cfg.Blob.Driver,
		}),
		Tokens:      tokens,
		AuthLimiter: limiter,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver, "blob", cfg.Blob.Driver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
	return nil
}

func openLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) (ratelimit.Limiter, func(), error) {
	window := time.Duration(cfg.AuthRateWindowSeconds) * time.Second

	if cfg.AuthRateLimit <= 0 {
		log.Warn("auth rate limiting disabled")
		return nil, func() {}, nil
	}

	if cfg.RedisAddr == "" {
		return ratelimit.NewMemory(cfg.AuthRateLimit, window), func() {}, nil
	}

	rdb, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	log.Info("rate limiting via redis", "addr", cfg.RedisAddr)
	return ratelimit.NewRedis(rdb, cfg.AuthRateLimit, window), func() { _ = rdb.Close() }, nil
}
