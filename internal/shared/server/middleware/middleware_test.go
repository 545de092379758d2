package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/shared/telemetry"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/v1/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/api/v1/batches/:id", func(c *gin.Context) {
		c.Set(BatchIDKey, c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAuthRequiresBearerToken(t *testing.T) {
	r := newRouter(Auth("secret", "production", "/api/v1/health"))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "public health", path: "/api/v1/health", want: http.StatusOK},
		{name: "missing token", path: "/api/v1/batches/b1", want: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/api/v1/batches/b1", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong token", path: "/api/v1/batches/b1", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", path: "/api/v1/batches/b1", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		headers := map[string]string{}
		if tt.header != "" {
			headers["Authorization"] = tt.header
		}
		if got := serve(r, http.MethodGet, tt.path, headers).Code; got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestAuthWithoutTokenDependsOnEnv(t *testing.T) {
	if got := serve(newRouter(Auth("", "dev")), http.MethodGet, "/api/v1/batches/b1", nil).Code; got != http.StatusOK {
		t.Fatalf("dev without token should be open, got %d", got)
	}
	if got := serve(newRouter(Auth("", "production")), http.MethodGet, "/api/v1/batches/b1", nil).Code; got != http.StatusUnauthorized {
		t.Fatalf("production without token should be closed, got %d", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	resp := serve(r, http.MethodOptions, "/api/v1/batches/b1", map[string]string{"Origin": "http://localhost:5173"})
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	other := serve(r, http.MethodGet, "/api/v1/batches/b1", map[string]string{"Origin": "http://evil.example"})
	if other.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin must not be allowed")
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	r := newRouter(RequestID())

	if got := serve(r, http.MethodGet, "/api/v1/health", map[string]string{"X-Request-Id": "req-1"}).Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("expected echoed id, got %q", got)
	}
	if got := serve(r, http.MethodGet, "/api/v1/health", nil).Header().Get("X-Request-Id"); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestLoggingIncludesBatchID(t *testing.T) {
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	r := newRouter(RequestID(), Logging())
	serve(r, http.MethodGet, "/api/v1/batches/b-42", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	for _, key := range []string{"request_id", "route", "status", "duration_ms"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing %q in %v", key, payload)
		}
	}
	if payload["batch_id"] != "b-42" || payload["route"] != "/api/v1/batches/:id" {
		t.Fatalf("unexpected log %v", payload)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	resp := serve(newRouter(RequestID(), Recovery()), http.MethodGet, "/panic", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"code":"internal"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestRateLimitPerGroup(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newRouter(RateLimit(RateLimitConfig{
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api/v1/health" {
				return "HEALTH"
			}
			return ""
		},
		Rules: map[string]RateLimitRule{
			"DEFAULT": {Rate: 1, Burst: 2},
		},
	}))

	for i := 0; i < 2; i++ {
		if got := serve(r, http.MethodGet, "/api/v1/batches/b1", nil).Code; got != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, got)
		}
	}
	resp := serve(r, http.MethodGet, "/api/v1/batches/b1", nil)
	if resp.Code != http.StatusTooManyRequests || resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 429 with Retry-After 1, got %d %q", resp.Code, resp.Header().Get("Retry-After"))
	}
	for i := 0; i < 5; i++ {
		if got := serve(r, http.MethodGet, "/api/v1/health", nil).Code; got != http.StatusOK {
			t.Fatalf("unlimited group must pass, got %d", got)
		}
	}
}
