package middleware

import (
	"net/http"

	"github.com/pxjin/opencode-deck/internal/logging"
)

// RequestID attaches a request id to the context and echoes it in the
// response so browser console output and relay log lines can be correlated.
// A client-supplied X-Request-ID wins; otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = "deck-" + logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
