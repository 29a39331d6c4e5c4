// Package opencode embeds and talks to the third-party OpenCode server.
// The wire shapes mirror the OpenCode REST API; fields the dashboard does
// not consume are omitted.
package opencode

// Provider describes one AI provider as reported by /config/providers.
type Provider struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Models        map[string]Model `json:"models"`
	Authenticated bool             `json:"authenticated"`
	AuthType      string           `json:"authType,omitempty"` // "api" or "oauth"
}

// Model is a single model entry under a provider.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProvidersResponse is the /config/providers payload.
type ProvidersResponse struct {
	Providers []Provider        `json:"providers"`
	Default   map[string]string `json:"default"`
}

// ProviderSummary aggregates authentication state for the dashboard.
type ProviderSummary struct {
	Total           int        `json:"total"`
	Authenticated   int        `json:"authenticated"`
	Unauthenticated int        `json:"unauthenticated"`
	Providers       []Provider `json:"providers"`
}

// Session is a conversation session issued by the OpenCode server.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Time  struct {
		Created int64 `json:"created,omitempty"`
		Updated int64 `json:"updated,omitempty"`
	} `json:"time,omitempty"`
}

// MessageInfo is the metadata half of a message.
type MessageInfo struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	SessionID string `json:"sessionID,omitempty"`
	Time      struct {
		Created int64 `json:"created,omitempty"`
	} `json:"time,omitempty"`
}

// MessagePart is one content part of a message.
type MessagePart struct {
	ID        string `json:"id,omitempty"`
	MessageID string `json:"messageID,omitempty"`
	SessionID string `json:"sessionID,omitempty"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
}

// Message pairs metadata with its parts, as returned by
// /session/:id/message.
type Message struct {
	Info  MessageInfo   `json:"info"`
	Parts []MessagePart `json:"parts"`
}

// MessageRequest is the body for POST /session/:id/message.
type MessageRequest struct {
	Parts []MessagePart `json:"parts"`
}

// AuthCredential is the body for PUT /auth/:id. Either Key is set
// (type "api") or the OAuth triple is (type "oauth").
type AuthCredential struct {
	Type    string `json:"type"` // "api" or "oauth"
	Key     string `json:"key,omitempty"`
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
	Expires int64  `json:"expires,omitempty"` // unix millis
}

// Summarize folds a provider list into authenticated/unauthenticated counts.
func Summarize(resp *ProvidersResponse) ProviderSummary {
	s := ProviderSummary{Providers: resp.Providers}
	s.Total = len(resp.Providers)
	for _, p := range resp.Providers {
		if p.Authenticated {
			s.Authenticated++
		}
	}
	s.Unauthenticated = s.Total - s.Authenticated
	return s
}
