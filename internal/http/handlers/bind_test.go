package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/docvault/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/register", func(ctx *gin.Context) {
		var req handlers.RegisterRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	r.POST("/reset", func(ctx *gin.Context) {
		var req handlers.ResetPasswordRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func postBind(t *testing.T, path, body string) bindErrorResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	bindRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}
	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	resp := postBind(t, "/register", `{"email":"not-an-email","role":"root"}`)

	wantRules := map[string]string{
		"name":     "required",
		"password": "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}

	// Email format and role are checked after normalization, not at bind time.
	for _, field := range []string{"email", "role"} {
		if _, ok := found[field]; ok {
			t.Fatalf("unexpected bind error for %q: %+v", field, resp.Error.Details.Fields)
		}
	}
}

func TestBindJSON_SnakeCaseTag(t *testing.T) {
	resp := postBind(t, "/reset", `{"email":"a@x.com"}`)

	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "new_password" {
		t.Fatalf("want new_password error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	resp := postBind(t, "/register", `{"name" "x"}`)

	if resp.Error.Details.JSON != "invalid_json_syntax" {
		t.Fatalf("unexpected details: %+v", resp.Error)
	}
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	resp := postBind(t, "/register", `{"name":42,"email":"a@x.com","password":"pw"}`)

	if resp.Error.Details.JSON != "invalid_json_type" || resp.Error.Details.Field != "name" {
		t.Fatalf("unexpected details: %+v", resp.Error.Details)
	}
}

func TestBindJSON_EmptyBody(t *testing.T) {
	resp := postBind(t, "/register", ``)

	if resp.Error.Message != "Missing JSON in request" {
		t.Fatalf("unexpected message: %q", resp.Error.Message)
	}
}
