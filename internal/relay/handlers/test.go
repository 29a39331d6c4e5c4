package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/pxjin/opencode-deck/internal/opencode"
	"github.com/pxjin/opencode-deck/internal/util"
)

// EndpointTestResult is the structured outcome of a connectivity probe.
type EndpointTestResult struct {
	Endpoint    string `json:"endpoint"`
	URL         string `json:"url"`
	StatusCode  int    `json:"status_code"`
	DurationMS  int64  `json:"duration_ms"`
	ContentType string `json:"content_type,omitempty"`
	Success     bool   `json:"success"`
	Summary     string `json:"summary"`
	Snippet     string `json:"snippet,omitempty"`
}

// OpenCodeTestHandler handles /api/test/opencode: probes the upstream
// provider listing and reports status, latency and a response snippet.
func OpenCodeTestHandler(client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		resp, err := client.Do(r.Context(), http.MethodGet, "/config/providers", "", nil)
		if err != nil {
			writeJSON(w, http.StatusOK, EndpointTestResult{
				Endpoint:   "opencode",
				URL:        client.BaseURL() + "/config/providers",
				DurationMS: time.Since(start).Milliseconds(),
				Success:    false,
				Summary:    "unreachable: " + err.Error(),
			})
			return
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		writeJSON(w, http.StatusOK, EndpointTestResult{
			Endpoint:    "opencode",
			URL:         client.BaseURL() + "/config/providers",
			StatusCode:  resp.StatusCode,
			DurationMS:  time.Since(start).Milliseconds(),
			ContentType: resp.Header.Get("Content-Type"),
			Success:     resp.StatusCode == http.StatusOK,
			Summary:     "HTTP " + resp.Status,
			Snippet:     util.TruncateLog(string(body), 512),
		})
	}
}
