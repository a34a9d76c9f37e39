package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/config"
	"github.com/geocoder89/docvault/internal/http/handlers"
	"github.com/geocoder89/docvault/internal/http/middlewares"
	"github.com/geocoder89/docvault/internal/observability"
	"github.com/geocoder89/docvault/internal/ratelimit"
)

type Deps struct {
	Config config.Config
	Log    *slog.Logger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer // nil hides /metrics

	Auth      *handlers.AuthHandler
	Files     *handlers.FilesHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler

	Tokens      middlewares.TokenVerifier
	AuthLimiter ratelimit.Limiter // nil disables rate limiting
}

// jsonBodyLimit caps credential payloads; uploads get Config.MaxUploadBytes.
const jsonBodyLimit = 64 << 10

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery(d.Log))
	if d.Config.OTelEnabled {
		r.Use(otelgin.Middleware(d.Config.OTelServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	// engine level so preflights for unregistered OPTIONS routes are answered
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	// health
	r.GET("/healthz", d.Health.Healthz)
	r.GET("/readyz", d.Health.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	api.GET("/ping", d.Health.Ping)

	// credential endpoints
	creds := api.Group("")
	creds.Use(middlewares.MaxBodyBytes(jsonBodyLimit))
	authLimit := func(scope string) gin.HandlerFunc {
		if d.AuthLimiter == nil {
			return func(ctx *gin.Context) { ctx.Next() }
		}
		return middlewares.RateLimit(d.AuthLimiter, scope, middlewares.KeyByIP, d.Log)
	}

	creds.POST("/register", authLimit("register"), middlewares.RequireJSON(), d.Auth.Register)
	creds.POST("/login", authLimit("login"), middlewares.RequireJSON(), d.Auth.Login)
	creds.POST("/reset_password", authLimit("reset"), middlewares.RequireJSON(), d.Auth.ResetPassword)
	creds.POST("/refresh", d.Auth.Refresh)

	// everything below needs an access token
	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	secured := api.Group("")
	secured.Use(authMw.RequireAuth())

	upload := middlewares.MaxBodyBytes(d.Config.MaxUploadBytes())

	secured.POST("/upload", upload, middlewares.RequireMultipart(), d.Files.Upload)
	secured.GET("/file/:id/raw", d.Files.Raw)
	secured.PUT("/file/:id/edit-pdf", upload, middlewares.RequireMultipart(), d.Files.EditPDF)

	secured.GET("/files", middlewares.Allow(access.ListAllFiles), d.Files.ListAll)
	secured.GET("/file/:id", middlewares.Allow(access.ViewFileDetail), d.Files.Detail)

	secured.GET("/user-files", d.Files.ListMine)
	secured.GET("/user-files/edited", d.Files.ListMineEdited)
	secured.GET("/dashboard", d.Dashboard.Show)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id", "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "X-Request-Id", "Retry-After", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}
