package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{"generated when absent", "", false},
		{"well formed id reused", "req-123_abc.DEF", true},
		{"header injection rejected", "abc\r\nX-Evil: 1", false},
		{"overlong id rejected", strings.Repeat("a", 65), false},
		{"max length id reused", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				// Direct map write under the canonical key so CR/LF values reach the middleware.
				req.Header[http.CanonicalHeaderKey(RequestIDHeader)] = []string{tt.inbound}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if ctxID == "" {
				t.Fatal("request id missing from context")
			}
			if rec.Header().Get(RequestIDHeader) != ctxID {
				t.Errorf("response header %q != context id %q", rec.Header().Get(RequestIDHeader), ctxID)
			}
			if tt.reuse && ctxID != tt.inbound {
				t.Errorf("request id = %q, want %q", ctxID, tt.inbound)
			}
			if !tt.reuse && ctxID == tt.inbound {
				t.Errorf("inbound id %q should not be reused", tt.inbound)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recoverer(logger, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/premium/check", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "INTERNAL_ERROR") {
		t.Errorf("body = %s, want INTERNAL_ERROR", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic was not logged: %s", buf.String())
	}
}
