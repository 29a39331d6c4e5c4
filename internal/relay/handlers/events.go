package handlers

import (
	"bufio"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pxjin/opencode-deck/internal/opencode"
	"github.com/pxjin/opencode-deck/internal/util"
	"github.com/tidwall/gjson"
)

// EventsHandler handles GET /api/opencode/events: opens one upstream /event
// SSE stream and re-streams it to the browser, flushing per event. An
// optional sessionID query narrows the stream to one chat session using
// exact sessionID matching on the event payload.
//
// On any upstream failure the handler answers 502 JSON instead of a
// half-open event stream.
func EventsHandler(client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("sessionID")

		resp, err := client.Events(r.Context())
		if err != nil {
			writeUpstreamDown(w)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			log.Printf("⚠️ Upstream event stream refused (status %d): %s", resp.StatusCode, util.TruncateBytes(body))
			writeUpstreamDown(w)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
			return
		}

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		// Large SSE frames show up when assistants stream big code blocks.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if sessionID != "" && !eventMatchesSession(data, sessionID) {
				continue
			}
			if _, err := io.WriteString(w, "data: "+data+"\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
		if err := scanner.Err(); err != nil && util.IsVerbose() {
			log.Printf("⚠️ [VERBOSE] Event stream ended with error: %v", err)
		}
	}
}

// eventMatchesSession reports whether an event payload belongs to the given
// session. OpenCode events carry the session id at different depths
// depending on event type; events without any session id (server.connected
// and the like) are forwarded to everyone.
func eventMatchesSession(data, sessionID string) bool {
	for _, path := range []string{
		"properties.part.sessionID",
		"properties.info.sessionID",
		"properties.sessionID",
	} {
		if v := gjson.Get(data, path); v.Exists() {
			return v.String() == sessionID
		}
	}
	return true
}
