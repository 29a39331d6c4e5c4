// Package handlers implements the relay's HTTP surface: the dashboard page,
// the OpenCode proxy routes, the SSE event relay, and the Anthropic OAuth
// exchange endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
)

// SetSSEHeaders sets standard headers for Server-Sent Events streaming.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the relay's uniform JSON error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
}

// writeUpstreamDown is the "upstream unreachable" category: always 502 with
// a generic message.
func writeUpstreamDown(w http.ResponseWriter) {
	writeError(w, http.StatusBadGateway, "upstream_unreachable", "OpenCode server unreachable")
}
