package middlewares

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/actorctx"
	"github.com/geocoder89/docvault/internal/auth"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	return f.claims, f.err
}

func claimsFor(sub string, role user.Role) *auth.Claims {
	return &auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		want     int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", want: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer t", verifier: fakeVerifier{err: auth.ErrTokenExpired}, want: http.StatusUnauthorized},
		{name: "bad subject", header: "Bearer t", verifier: fakeVerifier{claims: claimsFor("abc", user.RoleUser)}, want: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer t", verifier: fakeVerifier{claims: claimsFor("7", "root")}, want: http.StatusUnauthorized},
		{name: "ok", header: "bearer t", verifier: fakeVerifier{claims: claimsFor("7", user.RoleAdmin)}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *access.Actor

			r := gin.New()
			r.GET("/", NewAuthMiddleware(tt.verifier).RequireAuth(), func(c *gin.Context) {
				seen = actorctx.ActorFrom(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := serve(r, req)
			if w.Code != tt.want {
				t.Fatalf("status: got %d want %d body=%s", w.Code, tt.want, w.Body.String())
			}

			if tt.want == http.StatusOK {
				if seen == nil || seen.ID != 7 || seen.Role != user.RoleAdmin {
					t.Fatalf("actor not stored: %+v", seen)
				}
				return
			}
			if !strings.Contains(w.Body.String(), `"code":"unauthorized"`) {
				t.Fatalf("missing envelope: %s", w.Body.String())
			}
		})
	}
}

func TestAllow(t *testing.T) {
	build := func(role user.Role) *gin.Engine {
		r := gin.New()
		r.GET("/files",
			NewAuthMiddleware(fakeVerifier{claims: claimsFor("3", role)}).RequireAuth(),
			Allow(access.ListAllFiles),
			func(c *gin.Context) { c.Status(http.StatusOK) },
		)
		return r
	}

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/files", nil)
		r.Header.Set("Authorization", "Bearer t")
		return r
	}

	if w := serve(build(user.RoleUser), req()); w.Code != http.StatusForbidden {
		t.Fatalf("user: got %d", w.Code)
	}
	if w := serve(build(user.RoleAdmin), req()); w.Code != http.StatusOK {
		t.Fatalf("admin: got %d", w.Code)
	}

	// without auth in front there is no actor at all
	r := gin.New()
	r.GET("/files", Allow(access.ListAllFiles), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/files", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d", w.Code)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.POST("/login", RateLimit(ratelimit.NewMemory(1, time.Minute), "login", KeyByIP, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
		t.Fatalf("first: got %d", w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("retry-after: got %q", w.Header().Get("Retry-After"))
	}

	// a failing backend lets traffic through
	r = gin.New()
	r.POST("/login", RateLimit(brokenLimiter{}, "login", KeyByIP, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
		t.Fatalf("fail-open: got %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(RequestID(), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal_error"`) || !strings.Contains(w.Body.String(), `"requestId"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")

	w := serve(r, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("request id not propagated: %q", w.Body.String())
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.POST("/", MaxBodyBytes(4), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.POST("/", RequireJSON(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := serve(r, req); w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("form: got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("json: got %d", w.Code)
	}
}
