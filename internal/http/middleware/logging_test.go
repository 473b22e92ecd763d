package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs swaps the global logger for a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func newLoggedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	return r
}

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	r := newLoggedRouter()
	r.GET("/health", func(c *gin.Context) {
		if v, ok := c.Get(requestIDKey); !ok || v == "" {
			t.Fatal("request id missing from context")
		}
		c.String(http.StatusOK, "ok")
	})

	// Without a header the middleware mints one.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("no %s header generated", requestIDHeader)
	}

	// An incoming id is reused verbatim, whatever the header casing.
	for _, header := range []string{requestIDHeader, strings.ToLower(requestIDHeader)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(header, "card-req-9")
		r.ServeHTTP(w, req)
		if got := w.Header().Get(requestIDHeader); got != "card-req-9" {
			t.Fatalf("header %q: request id = %q, want card-req-9", header, got)
		}
	}
}

func TestLoggerLevelsAndRoutePath(t *testing.T) {
	buf := captureLogs(t)
	r := newLoggedRouter()
	r.GET("/twitter/:cardID", func(c *gin.Context) { c.String(http.StatusOK, "<html>") })
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errBoom{})
		c.Status(http.StatusBadRequest)
	})

	for _, path := range []string{"/twitter/abc123", "/nope", "/broken"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	logs := buf.String()
	// Matched routes log the pattern, not the concrete card id.
	if !strings.Contains(logs, `"level":"info"`) || !strings.Contains(logs, `"path":"/twitter/:cardID"`) {
		t.Fatalf("want info log with route pattern, got:\n%s", logs)
	}
	// Unmatched routes fall back to the raw path at warn.
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"/nope"`) {
		t.Fatalf("want warn log with raw path, got:\n%s", logs)
	}
	// Collected gin errors force error level regardless of status.
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, "boom") {
		t.Fatalf("want error log carrying the gin error, got:\n%s", logs)
	}
	// The card server has no authenticated callers, so access logs must
	// never grow identity fields.
	if strings.Contains(logs, `"user_id"`) {
		t.Fatalf("access log carries user_id:\n%s", logs)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestRecoveryAnswersJSON500(t *testing.T) {
	buf := captureLogs(t)
	r := newLoggedRouter()
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["code"] != "internal_error" {
		t.Fatalf("body = %v", body)
	}
	if rid, _ := body["request_id"].(string); rid == "" {
		t.Fatalf("body missing request_id: %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged:\n%s", buf.String())
	}
}

func TestRecoveryAfterWriteSkipsJSONBody(t *testing.T) {
	buf := captureLogs(t)
	r := newLoggedRouter()
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))

	// The body was already flushed; no JSON error may be appended to it.
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("JSON error appended after write: %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged:\n%s", buf.String())
	}
}

func TestLoggerFromScopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Without Logger() installed the fallback carries no request fields.
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("bare")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if out := buf.String(); !strings.Contains(out, `"message":"bare"`) || strings.Contains(out, `"request_id"`) {
		t.Fatalf("fallback logger output:\n%s", out)
	}

	// With Logger() installed the scoped logger carries the request id.
	buf2 := captureLogs(t)
	r2 := newLoggedRouter()
	r2.GET("/x", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("scoped")
		c.Status(http.StatusOK)
	})
	r2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if out := buf2.String(); !strings.Contains(out, `"message":"scoped"`) || !strings.Contains(out, `"request_id"`) {
		t.Fatalf("scoped logger output:\n%s", out)
	}
}

func TestTruncateAndAsString(t *testing.T) {
	if asString("x") != "x" || asString(42) != "" {
		t.Fatal("asString")
	}
	if got := truncate("prompt=pepe", 6); got != "prompt…" {
		t.Fatalf("truncate = %q", got)
	}
	if truncate("short", 64) != "short" || truncate("any", 0) != "any" {
		t.Fatal("truncate must pass short and unlimited inputs through")
	}
}
