package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestWrapSetsRequestIDWhenMissing(t *testing.T) {
	var seen string
	h := Wrap(testLogger(), "testsvc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))

	got := rec.Header().Get(HeaderRequestID)
	if got == "" {
		t.Fatalf("expected X-Request-Id response header")
	}
	if seen != got {
		t.Fatalf("context request id %q != header %q", seen, got)
	}
}

func TestWrapPreservesRequestID(t *testing.T) {
	h := Wrap(testLogger(), "testsvc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "rid-123" {
		t.Fatalf("X-Request-Id=%q, want rid-123", got)
	}
}

func TestWrapRecoversPanic(t *testing.T) {
	h := Wrap(testLogger(), "testsvc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set(HeaderRequestID, "rid-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "internal_server_error" || body["request_id"] != "rid-9" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyzWithChecks(t *testing.T) {
	ok := ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	bad := ReadinessCheck{Name: "minio", Check: func(context.Context) error { return errors.New("down") }}

	rec := httptest.NewRecorder()
	ReadyzWithChecks("svc", ok)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	ReadyzWithChecks("svc", ok, bad)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "not_ready" || len(body.Checks) != 2 || body.Checks[1].Error != "down" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRunRequiresServiceAndAddr(t *testing.T) {
	if err := Run(context.Background(), testLogger(), Config{Addr: ":0"}, http.NotFoundHandler()); err == nil {
		t.Fatalf("expected error for missing service")
	}
	if err := Run(context.Background(), testLogger(), Config{Service: "svc"}, http.NotFoundHandler()); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}
