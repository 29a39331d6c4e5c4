// Package middleware holds chi middleware for the relay.
package middleware

import "net/http"

// CORS adds permissive cross-origin headers to every /api response and
// short-circuits OPTIONS preflight requests. The dashboard is normally
// same-origin; the headers exist so external tooling can hit the relay too.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
