package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pxjin/opencode-deck/internal/logging"
)

func TestRequestID_Generated(t *testing.T) {
	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = logging.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/hello", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	echoed := rec.Header().Get("X-Request-ID")
	if !strings.HasPrefix(echoed, "deck-") {
		t.Fatalf("generated id = %q, want deck- prefix", echoed)
	}
	if ctxID != echoed {
		t.Fatalf("context id %q != echoed id %q", ctxID, echoed)
	}
}

func TestRequestID_ClientSupplied(t *testing.T) {
	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = logging.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/hello", nil)
	req.Header.Set("X-Request-ID", "client-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-id" {
		t.Fatalf("echoed id = %q, want client-id", got)
	}
	if ctxID != "client-id" {
		t.Fatalf("context id = %q", ctxID)
	}
}
