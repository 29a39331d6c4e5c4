package opencode

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

// ErrUpstreamDown marks transport-level failures reaching the OpenCode
// server. Handlers translate it to a 502.
var ErrUpstreamDown = errors.New("opencode server unreachable")

// Client is a thin REST/SSE client for the OpenCode server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no timeout so /event connections can live for hours.
	streamClient *http.Client
}

// NewClient creates a client for the OpenCode server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		streamClient: &http.Client{},
	}
}

// BaseURL returns the configured OpenCode server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Providers fetches the provider list from /config/providers.
func (c *Client) Providers(ctx context.Context) (*ProvidersResponse, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/config/providers", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("providers: upstream returned %d: %s", resp.StatusCode, body)
	}

	var out ProvidersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("providers: decode: %w", err)
	}
	return &out, nil
}

// ListSessions fetches every session known to the server.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/session", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list sessions: upstream returned %d: %s", resp.StatusCode, body)
	}

	var sessions []Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("list sessions: decode: %w", err)
	}
	return sessions, nil
}

// CreateSession creates a new chat session.
func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	payload, _ := json.Marshal(map[string]string{"title": title})
	resp, err := c.Do(ctx, http.MethodPost, "/session", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create session: upstream returned %d: %s", resp.StatusCode, body)
	}

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("create session: decode: %w", err)
	}
	return &s, nil
}

// Messages fetches the full message list for a session.
func (c *Client) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/session/"+sessionID+"/message", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("messages: upstream returned %d: %s", resp.StatusCode, body)
	}

	var msgs []Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("messages: decode: %w", err)
	}
	return msgs, nil
}

// SendMessage posts a message to a session and returns the stored message.
func (c *Client) SendMessage(ctx context.Context, sessionID string, req MessageRequest) (*Message, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("send message: marshal: %w", err)
	}
	resp, err := c.Do(ctx, http.MethodPost, "/session/"+sessionID+"/message", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("send message: upstream returned %d: %s", resp.StatusCode, body)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("send message: decode: %w", err)
	}
	return &msg, nil
}

// PutAuth writes a credential into the OpenCode credential store.
func (c *Client) PutAuth(ctx context.Context, providerID string, cred AuthCredential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("put auth: marshal: %w", err)
	}
	resp, err := c.Do(ctx, http.MethodPut, "/auth/"+providerID, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("put auth: upstream returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// DeleteAuth clears a provider's credential. Issues exactly one DELETE.
func (c *Client) DeleteAuth(ctx context.Context, providerID string) error {
	resp, err := c.Do(ctx, http.MethodDelete, "/auth/"+providerID, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete auth: upstream returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Events opens the long-lived /event SSE stream. The caller owns the
// response body and must close it.
func (c *Client) Events(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/event", nil)
	if err != nil {
		return nil, fmt.Errorf("events: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamDown, err)
	}
	return resp, nil
}

// Do performs a generic request against the OpenCode server. Used by the
// catch-all relay; typed helpers above are built on it too.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamDown, err)
	}
	return resp, nil
}
