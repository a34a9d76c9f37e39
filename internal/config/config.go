package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// "postgres" or "memory"
	StorageDriver string
	RunMigrations bool

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	Blob BlobConfig

	MaxUploadMB int
	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit         int
	AuthRateWindowSeconds int

	OTelEnabled     bool
	OTelEndpoint    string
	OTelServiceName string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type BlobConfig struct {
	// "http", "minio", "s3" or "memory"
	Driver string

	UploadURL string
	Token     string

	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	PublicURL string

	TimeoutSeconds         int
	BreakerThreshold       int
	BreakerCooldownSeconds int
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:           getEnv("APP_ENV", "dev"),
		Port:          getEnvInt("PORT", 8080),
		DBURL:         getEnv("DATABASE_URL", buildDBURL()),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),

		Blob: BlobConfig{
			Driver:                 strings.ToLower(getEnv("BLOB_DRIVER", "http")),
			UploadURL:              getEnv("BLOB_UPLOAD_URL", ""),
			Token:                  getEnv("BLOB_TOKEN", ""),
			Endpoint:               getEnv("BLOB_ENDPOINT", ""),
			Bucket:                 getEnv("BLOB_BUCKET", ""),
			AccessKey:              getEnv("BLOB_ACCESS_KEY", ""),
			SecretKey:              getEnv("BLOB_SECRET_KEY", ""),
			Region:                 getEnv("BLOB_REGION", "us-east-1"),
			UseSSL:                 getEnvBool("BLOB_USE_SSL", true),
			PublicURL:              getEnv("BLOB_PUBLIC_URL", ""),
			TimeoutSeconds:         getEnvInt("BLOB_TIMEOUT_SECONDS", 30),
			BreakerThreshold:       getEnvInt("BLOB_BREAKER_THRESHOLD", 5),
			BreakerCooldownSeconds: getEnvInt("BLOB_BREAKER_COOLDOWN_SECONDS", 30),
		},

		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 25),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindowSeconds: getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "docvault"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// Validate fails fast on settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		if c.Env != "dev" && c.Env != "test" {
			errs = append(errs, errors.New("JWT_SECRET is required"))
		}
	}

	switch c.StorageDriver {
	case "postgres":
		if c.DBURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.Blob.Driver {
	case "http":
		if c.Blob.UploadURL == "" || c.Blob.Token == "" {
			errs = append(errs, errors.New("BLOB_UPLOAD_URL and BLOB_TOKEN are required for the http blob driver"))
		}
	case "minio", "s3":
		if c.Blob.Bucket == "" {
			errs = append(errs, fmt.Errorf("BLOB_BUCKET is required for the %s blob driver", c.Blob.Driver))
		}
		if c.Blob.Driver == "minio" && c.Blob.Endpoint == "" {
			errs = append(errs, errors.New("BLOB_ENDPOINT is required for the minio blob driver"))
		}
	case "memory":
		if c.Env != "dev" && c.Env != "test" {
			errs = append(errs, errors.New("the memory blob driver is only allowed in dev and test"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver))
	}

	if c.JWTAccessTTLMinutes <= 0 || c.JWTRefreshTTLDays <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

const devSecret = "dev-only-insecure-secret"

// Secret returns the signing key, falling back to a fixed dev key so local runs work without setup.
func (c Config) Secret() string {
	if c.UsesDevSecret() {
		return devSecret
	}
	return c.JWTSecret
}

// UsesDevSecret reports whether tokens will be signed with the built-in dev key.
func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == ""
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// DBSummary describes the database target without credentials.
func (c Config) DBSummary() string {
	if c.StorageDriver == "memory" {
		return "memory"
	}

	u, err := url.Parse(c.DBURL)
	if err != nil || u.Host == "" {
		return "unparseable"
	}

	return u.Host + u.Path
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "docvault")
	pass := getEnv("DB_PASSWORD", "docvault")
	name := getEnv("DB_NAME", "docvault")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
