package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerLogsMethodAndPath(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/launch-week", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if logs.Len() != 1 {
		t.Fatalf("entries = %d, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	for key, want := range map[string]any{
		"method":     "GET",
		"path":       "/launch-week",
		"status":     int64(http.StatusNoContent),
		"request_id": "req-123",
	} {
		if fields[key] != want {
			t.Fatalf("field %s = %v, want %v", key, fields[key], want)
		}
	}
}

func TestRequestLoggerCapturesImplicitStatusOKAndBytes(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/up", nil))
	fields := logs.All()[0].ContextMap()
	if fields["status"] != int64(http.StatusOK) {
		t.Fatalf("status = %v, want 200", fields["status"])
	}
	if fields["bytes"] != int64(2) {
		t.Fatalf("bytes = %v, want 2", fields["bytes"])
	}
	if _, ok := fields["latency"]; !ok {
		t.Fatal("latency field missing")
	}
}

func TestRequestLoggerPreservesFlusher(t *testing.T) {
	t.Parallel()

	h := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("writer is not a flusher")
		}
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush() error = %v", err)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/launch-week/events", nil))
}
