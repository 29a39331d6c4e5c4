package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pxjin/opencode-deck/internal/db/models"
	"github.com/pxjin/opencode-deck/internal/logging"
	"github.com/pxjin/opencode-deck/internal/opencode"
	"github.com/pxjin/opencode-deck/internal/relay/monitor"
	"github.com/pxjin/opencode-deck/internal/util"
)

// proxyPrefix is stripped from the browser-facing path to obtain the
// upstream OpenCode path.
const proxyPrefix = "/api/opencode"

// ProxyHandler is the stateless catch-all relay for /api/opencode/*.
// It copies method, body and Content-Type upstream, and copies status and
// Content-Type (plus the body, byte for byte) back.
func ProxyHandler(client *opencode.Client, mon *monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		path := strings.TrimPrefix(r.URL.Path, proxyPrefix)
		if path == "" {
			path = "/"
		}
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		resp, err := client.Do(r.Context(), r.Method, path, r.Header.Get("Content-Type"), r.Body)
		if err != nil {
			mon.Record(models.RequestLog{
				Method: r.Method, Path: r.URL.Path, Upstream: path,
				Status: http.StatusBadGateway, Duration: time.Since(start).Milliseconds(),
				Error: err.Error(),
			})
			writeUpstreamDown(w)
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		written, _ := io.Copy(w, resp.Body)

		if util.IsVerbose() {
			log.Printf("🔁 [%s] %s %s -> %d (%d bytes)",
				logging.GetRequestID(r.Context()), r.Method, path, resp.StatusCode, written)
		}

		mon.Record(models.RequestLog{
			Method: r.Method, Path: r.URL.Path, Upstream: path,
			Status: resp.StatusCode, Duration: time.Since(start).Milliseconds(),
			BodySize: written,
		})
	}
}

// AuthPutHandler handles PUT /api/opencode/auth/{id}: validates the
// credential shape before forwarding it to the credential store.
func AuthPutHandler(client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "id")

		var cred opencode.AuthCredential
		if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed credential body")
			return
		}
		switch cred.Type {
		case "api":
			if cred.Key == "" {
				writeError(w, http.StatusBadRequest, "invalid_request", "api credential requires key")
				return
			}
		case "oauth":
			if cred.Access == "" {
				writeError(w, http.StatusBadRequest, "invalid_request", "oauth credential requires access token")
				return
			}
		default:
			writeError(w, http.StatusBadRequest, "invalid_request", "credential type must be api or oauth")
			return
		}

		if err := client.PutAuth(r.Context(), providerID, cred); err != nil {
			if errors.Is(err, opencode.ErrUpstreamDown) {
				writeUpstreamDown(w)
				return
			}
			writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
			return
		}

		log.Printf("🔐 Stored %s credential for provider %s", cred.Type, providerID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// AuthDeleteHandler handles DELETE /api/opencode/auth/{id}: issues exactly
// one upstream DELETE to clear the provider's credential.
func AuthDeleteHandler(client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "id")

		if err := client.DeleteAuth(r.Context(), providerID); err != nil {
			if errors.Is(err, opencode.ErrUpstreamDown) {
				writeUpstreamDown(w)
				return
			}
			writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
			return
		}

		log.Printf("🧹 Cleared credential for provider %s", providerID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
