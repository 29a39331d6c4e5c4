package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrExchangeFailed covers every failed exchange: transport errors and
// non-2xx responses alike. Callers surface a uniform "failed" result and
// do not retry.
var ErrExchangeFailed = errors.New("oauth exchange failed")

// Credentials is the OAuth triple stored in the OpenCode credential store.
type Credentials struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	ExpiresAt    int64  `json:"expires"` // unix millis
}

// Exchanger performs the server-side half of the PKCE flow. The browser
// cannot call Anthropic's token endpoint directly (CORS), so the relay does.
type Exchanger struct {
	TokenURL        string
	CreateAPIKeyURL string
	httpClient      *http.Client
}

// NewExchanger creates an Exchanger against the production endpoints.
func NewExchanger() *Exchanger {
	return &Exchanger{
		TokenURL:        DefaultTokenURL,
		CreateAPIKeyURL: DefaultCreateAPIKeyURL,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ExchangeCode exchanges an authorization code for the OAuth triple.
// The code may be the raw value or the "code#state" composite shown on the
// callback page.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, verifier string) (*Credentials, error) {
	code, state := splitCode(code)

	payload, _ := json.Marshal(map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"state":         state,
		"client_id":     ClientID,
		"redirect_uri":  RedirectURI,
		"code_verifier": verifier,
	})

	body, err := e.post(ctx, e.TokenURL, "", payload)
	if err != nil {
		return nil, err
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: malformed token response", ErrExchangeFailed)
	}

	return &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().UnixMilli() + token.ExpiresIn*1000,
	}, nil
}

// CreateAPIKey trades a fresh access token for a long-lived API key.
func (e *Exchanger) CreateAPIKey(ctx context.Context, accessToken string) (string, error) {
	body, err := e.post(ctx, e.CreateAPIKeyURL, accessToken, []byte(`{}`))
	if err != nil {
		return "", err
	}

	var out struct {
		RawKey string `json:"raw_key"`
		Key    string `json:"key"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: malformed api key response", ErrExchangeFailed)
	}
	if out.RawKey != "" {
		return out.RawKey, nil
	}
	if out.Key != "" {
		return out.Key, nil
	}
	return "", fmt.Errorf("%w: empty api key response", ErrExchangeFailed)
}

func (e *Exchanger) post(ctx context.Context, url, bearer string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, resp.StatusCode, body)
	}
	return body, nil
}

// splitCode separates the "code#state" composite the callback page displays.
func splitCode(raw string) (code, state string) {
	parts := strings.SplitN(strings.TrimSpace(raw), "#", 2)
	code = parts[0]
	if len(parts) == 2 {
		state = parts[1]
	}
	return code, state
}
