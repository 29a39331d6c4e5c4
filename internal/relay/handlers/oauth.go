package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pxjin/opencode-deck/internal/auth/anthropic"
	"github.com/pxjin/opencode-deck/internal/opencode"
)

// anthropicProviderID is the credential store slot the exchanged secrets
// land in.
const anthropicProviderID = "anthropic"

type exchangeRequest struct {
	Code     string `json:"code"`
	Verifier string `json:"verifier"`
}

// OAuthAuthorizeHandler handles GET /api/anthropic/oauth/authorize.
// Returns a fresh authorization URL plus the PKCE verifier. The server keeps
// nothing: the browser holds the verifier in session storage until the flow
// completes or is cancelled.
func OAuthAuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = anthropic.ModeMax
		}

		pkce := anthropic.GeneratePKCE()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"url":      anthropic.AuthorizeURL(pkce, mode),
			"verifier": pkce.Verifier,
			"method":   pkce.Method,
		})
	}
}

// OAuthTokenHandler handles POST /api/anthropic/oauth/token: exchanges the
// pasted authorization code for an OAuth triple and pushes it into the
// OpenCode credential store.
func OAuthTokenHandler(exchanger *anthropic.Exchanger, client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.Verifier == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "code and verifier are required")
			return
		}

		creds, err := exchanger.ExchangeCode(r.Context(), req.Code, req.Verifier)
		if err != nil {
			log.Printf("❌ OAuth token exchange failed: %v", err)
			writeError(w, http.StatusBadGateway, "oauth_exchange_failed", "authorization code exchange failed")
			return
		}

		cred := opencode.AuthCredential{
			Type:    "oauth",
			Access:  creds.AccessToken,
			Refresh: creds.RefreshToken,
			Expires: creds.ExpiresAt,
		}
		if err := client.PutAuth(r.Context(), anthropicProviderID, cred); err != nil {
			if errors.Is(err, opencode.ErrUpstreamDown) {
				writeUpstreamDown(w)
				return
			}
			log.Printf("❌ Failed to store OAuth credential: %v", err)
			writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
			return
		}

		log.Printf("✅ Stored Anthropic OAuth credential (expires %d)", creds.ExpiresAt)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"type":    "oauth",
			"expires": creds.ExpiresAt,
		})
	}
}

// OAuthAPIKeyHandler handles POST /api/anthropic/oauth/api-key: performs the
// code exchange, then trades the access token for a long-lived API key and
// stores that instead of the OAuth triple.
func OAuthAPIKeyHandler(exchanger *anthropic.Exchanger, client *opencode.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.Verifier == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "code and verifier are required")
			return
		}

		creds, err := exchanger.ExchangeCode(r.Context(), req.Code, req.Verifier)
		if err != nil {
			log.Printf("❌ OAuth api-key exchange failed: %v", err)
			writeError(w, http.StatusBadGateway, "oauth_exchange_failed", "authorization code exchange failed")
			return
		}

		apiKey, err := exchanger.CreateAPIKey(r.Context(), creds.AccessToken)
		if err != nil {
			log.Printf("❌ API key creation failed: %v", err)
			writeError(w, http.StatusBadGateway, "oauth_exchange_failed", "api key creation failed")
			return
		}

		cred := opencode.AuthCredential{Type: "api", Key: apiKey}
		if err := client.PutAuth(r.Context(), anthropicProviderID, cred); err != nil {
			if errors.Is(err, opencode.ErrUpstreamDown) {
				writeUpstreamDown(w)
				return
			}
			writeError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
			return
		}

		log.Printf("✅ Stored Anthropic API key credential")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"type":   "api",
		})
	}
}
