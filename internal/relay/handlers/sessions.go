package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pxjin/opencode-deck/internal/db/models"
	"github.com/pxjin/opencode-deck/internal/opencode"
	"github.com/pxjin/opencode-deck/internal/relay/monitor"
)

// Session and message endpoints go through the typed client instead of the
// byte-level catch-all so the relay validates shapes before they reach the
// upstream. They still feed the traffic monitor like the catch-all does.

// SessionsListHandler handles GET /api/opencode/session.
func SessionsListHandler(client *opencode.Client, mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sessions, err := client.ListSessions(r.Context())
		if err != nil {
			recordUpstreamError(mon, r, start, err)
			writeUpstreamError(w, err)
			return
		}
		recordOK(mon, r, start)
		writeJSON(w, http.StatusOK, sessions)
	}
}

// SessionCreateHandler handles POST /api/opencode/session.
func SessionCreateHandler(client *opencode.Client, mon *monitor.Monitor) http.HandlerFunc {
	type request struct {
		Title string `json:"title"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed session body")
			return
		}

		session, err := client.CreateSession(r.Context(), req.Title)
		if err != nil {
			recordUpstreamError(mon, r, start, err)
			writeUpstreamError(w, err)
			return
		}
		recordOK(mon, r, start)
		writeJSON(w, http.StatusOK, session)
	}
}

// MessagesHandler handles GET /api/opencode/session/{id}/message.
func MessagesHandler(client *opencode.Client, mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		msgs, err := client.Messages(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			recordUpstreamError(mon, r, start, err)
			writeUpstreamError(w, err)
			return
		}
		recordOK(mon, r, start)
		writeJSON(w, http.StatusOK, msgs)
	}
}

// SendMessageHandler handles POST /api/opencode/session/{id}/message.
func SendMessageHandler(client *opencode.Client, mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req opencode.MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed message body")
			return
		}
		if len(req.Parts) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "message requires at least one part")
			return
		}

		msg, err := client.SendMessage(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			recordUpstreamError(mon, r, start, err)
			writeUpstreamError(w, err)
			return
		}
		recordOK(mon, r, start)
		writeJSON(w, http.StatusOK, msg)
	}
}

func recordOK(mon *monitor.Monitor, r *http.Request, start time.Time) {
	mon.Record(models.RequestLog{
		Method: r.Method, Path: r.URL.Path,
		Status: http.StatusOK, Duration: time.Since(start).Milliseconds(),
	})
}

func recordUpstreamError(mon *monitor.Monitor, r *http.Request, start time.Time, err error) {
	mon.Record(models.RequestLog{
		Method: r.Method, Path: r.URL.Path,
		Status: http.StatusBadGateway, Duration: time.Since(start).Milliseconds(),
		Error: err.Error(),
	})
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, opencode.ErrUpstreamDown) {
		writeUpstreamDown(w)
		return
	}
	writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
}
