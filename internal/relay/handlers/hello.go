package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pxjin/opencode-deck/internal/version"
)

// HelloHandler handles /api/hello and /api/hello/{name} as a liveness echo.
func HelloHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			name = "world"
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": fmt.Sprintf("Hello, %s!", name),
			"version": version.Version,
			"time":    time.Now().UnixMilli(),
		})
	}
}
