package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testExchanger(tokenURL, apiKeyURL string) *Exchanger {
	return &Exchanger{
		TokenURL:        tokenURL,
		CreateAPIKeyURL: apiKeyURL,
		httpClient:      &http.Client{Timeout: 5 * time.Second},
	}
}

func TestExchangeCode_Success(t *testing.T) {
	var gotReq map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer ts.Close()

	e := testExchanger(ts.URL, "")
	before := time.Now().UnixMilli()
	creds, err := e.ExchangeCode(context.Background(), "the-code#the-state", "the-verifier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if creds.AccessToken != "at-1" || creds.RefreshToken != "rt-1" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
	if creds.ExpiresAt < before+3_500_000 {
		t.Fatalf("expiry not in the future: %d", creds.ExpiresAt)
	}

	if gotReq["grant_type"] != "authorization_code" {
		t.Errorf("grant_type = %q", gotReq["grant_type"])
	}
	if gotReq["code"] != "the-code" {
		t.Errorf("code = %q (composite not split)", gotReq["code"])
	}
	if gotReq["state"] != "the-state" {
		t.Errorf("state = %q", gotReq["state"])
	}
	if gotReq["code_verifier"] != "the-verifier" {
		t.Errorf("code_verifier = %q", gotReq["code_verifier"])
	}
	if gotReq["client_id"] != ClientID {
		t.Errorf("client_id = %q", gotReq["client_id"])
	}
}

func TestExchangeCode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream rejects",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
		{
			name: "empty token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"access_token":""}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			e := testExchanger(ts.URL, "")
			_, err := e.ExchangeCode(context.Background(), "code", "verifier")
			if !errors.Is(err, ErrExchangeFailed) {
				t.Fatalf("expected ErrExchangeFailed, got %v", err)
			}
		})
	}
}

func TestExchangeCode_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // closed server refuses connections

	e := testExchanger(ts.URL, "")
	_, err := e.ExchangeCode(context.Background(), "code", "verifier")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestCreateAPIKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer at-1" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		w.Write([]byte(`{"raw_key":"sk-ant-test"}`))
	}))
	defer ts.Close()

	e := testExchanger("", ts.URL)
	key, err := e.CreateAPIKey(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-ant-test" {
		t.Fatalf("key = %q", key)
	}
}

func TestCreateAPIKey_EmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	e := testExchanger("", ts.URL)
	if _, err := e.CreateAPIKey(context.Background(), "at-1"); !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}
