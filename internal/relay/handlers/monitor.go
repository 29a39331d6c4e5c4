package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pxjin/opencode-deck/internal/relay/monitor"
)

// MonitorLogsHandler handles GET /api/monitor/logs?limit=N.
func MonitorLogsHandler(mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs":    mon.Logs(limit),
			"enabled": mon.IsEnabled(),
		})
	}
}

// MonitorStatsHandler handles GET /api/monitor/stats.
func MonitorStatsHandler(mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mon.Stats())
	}
}

// MonitorToggleHandler handles POST /api/monitor/toggle with {"enabled":bool}.
func MonitorToggleHandler(mon *monitor.Monitor) http.HandlerFunc {
	type request struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed toggle body")
			return
		}
		mon.SetEnabled(req.Enabled)
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "enabled": req.Enabled})
	}
}

// MonitorClearHandler handles POST /api/monitor/clear.
func MonitorClearHandler(mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mon.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to clear logs")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
