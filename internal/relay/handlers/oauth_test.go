package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pxjin/opencode-deck/internal/auth/anthropic"
	"github.com/pxjin/opencode-deck/internal/opencode"
)

func TestOAuthAuthorizeHandler(t *testing.T) {
	handler := OAuthAuthorizeHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/anthropic/oauth/authorize?mode=max", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out struct {
		URL      string `json:"url"`
		Verifier string `json:"verifier"`
		Method   string `json:"method"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !strings.HasPrefix(out.URL, "https://claude.ai/oauth/authorize") {
		t.Errorf("url = %q", out.URL)
	}
	if len(out.Verifier) != 43 {
		t.Errorf("verifier length = %d, want 43", len(out.Verifier))
	}
	if out.Method != "S256" {
		t.Errorf("method = %q", out.Method)
	}
	if !strings.Contains(out.URL, "code_challenge=") {
		t.Errorf("challenge missing from url: %q", out.URL)
	}
	// The verifier must never appear in the URL as the challenge.
	if strings.Contains(out.URL, "code_challenge="+out.Verifier) {
		t.Error("verifier leaked as challenge")
	}
}

func TestOAuthAuthorizeHandler_FreshVerifierPerRequest(t *testing.T) {
	handler := OAuthAuthorizeHandler()
	seen := map[string]bool{}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/anthropic/oauth/authorize", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var out struct {
			Verifier string `json:"verifier"`
		}
		json.Unmarshal(rec.Body.Bytes(), &out)
		if seen[out.Verifier] {
			t.Fatalf("verifier repeated: %q", out.Verifier)
		}
		seen[out.Verifier] = true
	}
}

func TestOAuthTokenHandler_Success(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var storedBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/auth/anthropic" {
			t.Errorf("unexpected upstream request: %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		storedBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	exchanger := anthropic.NewExchanger()
	exchanger.TokenURL = tokenSrv.URL

	handler := OAuthTokenHandler(exchanger, opencode.NewClient(upstream.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/anthropic/oauth/token",
		strings.NewReader(`{"code":"abc#xyz","verifier":"v-1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(storedBody, `"type":"oauth"`) || !strings.Contains(storedBody, `"access":"at-1"`) {
		t.Fatalf("credential not stored upstream: %s", storedBody)
	}

	var out struct {
		Status  string `json:"status"`
		Type    string `json:"type"`
		Expires int64  `json:"expires"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Status != "ok" || out.Type != "oauth" || out.Expires == 0 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestOAuthTokenHandler_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing code", body: `{"verifier":"v"}`},
		{name: "missing verifier", body: `{"code":"c"}`},
	}

	handler := OAuthTokenHandler(anthropic.NewExchanger(), opencode.NewClient("http://127.0.0.1:0"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/anthropic/oauth/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestOAuthTokenHandler_ExchangeFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	exchanger := anthropic.NewExchanger()
	exchanger.TokenURL = tokenSrv.URL

	handler := OAuthTokenHandler(exchanger, opencode.NewClient("http://127.0.0.1:0"))
	req := httptest.NewRequest(http.MethodPost, "/api/anthropic/oauth/token",
		strings.NewReader(`{"code":"bad","verifier":"v"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "oauth_exchange_failed") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestOAuthAPIKeyHandler_Success(t *testing.T) {
	anthropicSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Write([]byte(`{"access_token":"at-1","expires_in":60}`))
		case "/key":
			if auth := r.Header.Get("Authorization"); auth != "Bearer at-1" {
				t.Errorf("unexpected auth: %q", auth)
			}
			w.Write([]byte(`{"raw_key":"sk-ant-live"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer anthropicSrv.Close()

	var storedBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		storedBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	exchanger := anthropic.NewExchanger()
	exchanger.TokenURL = anthropicSrv.URL + "/token"
	exchanger.CreateAPIKeyURL = anthropicSrv.URL + "/key"

	handler := OAuthAPIKeyHandler(exchanger, opencode.NewClient(upstream.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/anthropic/oauth/api-key",
		strings.NewReader(`{"code":"abc","verifier":"v"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(storedBody, `"type":"api"`) || !strings.Contains(storedBody, `"key":"sk-ant-live"`) {
		t.Fatalf("api key not stored upstream: %s", storedBody)
	}
}

func TestOAuthAPIKeyHandler_KeyCreationFails(t *testing.T) {
	anthropicSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Write([]byte(`{"access_token":"at-1","expires_in":60}`))
		case "/key":
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}))
	defer anthropicSrv.Close()

	exchanger := anthropic.NewExchanger()
	exchanger.TokenURL = anthropicSrv.URL + "/token"
	exchanger.CreateAPIKeyURL = anthropicSrv.URL + "/key"

	handler := OAuthAPIKeyHandler(exchanger, opencode.NewClient("http://127.0.0.1:0"))
	req := httptest.NewRequest(http.MethodPost, "/api/anthropic/oauth/api-key",
		strings.NewReader(`{"code":"abc","verifier":"v"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
