// Package anthropic implements the Anthropic OAuth/PKCE login flow used by
// the OpenCode ecosystem: authorization URL construction, code-for-token
// exchange, and API key creation.
package anthropic

import (
	"golang.org/x/oauth2"
)

// Fixed OAuth client used by OpenCode-compatible tooling. Anthropic issues
// one public client id for the CLI flow; PKCE protects the exchange.
const (
	ClientID = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"

	AuthorizeURLMax     = "https://claude.ai/oauth/authorize"
	AuthorizeURLConsole = "https://console.anthropic.com/oauth/authorize"
	RedirectURI         = "https://console.anthropic.com/oauth/code/callback"

	DefaultTokenURL        = "https://console.anthropic.com/v1/oauth/token"
	DefaultCreateAPIKeyURL = "https://api.anthropic.com/api/oauth/claude_cli/create_api_key"
)

// Scopes requested for the OpenCode credential.
var Scopes = []string{"org:create_api_key", "user:profile", "user:inference"}

// ModeMax selects the claude.ai consent page (Claude subscription accounts),
// ModeConsole the console.anthropic.com one (API accounts).
const (
	ModeMax     = "max"
	ModeConsole = "console"
)

// AuthorizeURL builds the authorization URL for the given PKCE pair.
// State is set to the verifier, matching the callback page's code#state
// composite that the user pastes back.
func AuthorizeURL(p *PKCE, mode string) string {
	authURL := AuthorizeURLMax
	if mode == ModeConsole {
		authURL = AuthorizeURLConsole
	}

	cfg := &oauth2.Config{
		ClientID:    ClientID,
		RedirectURL: RedirectURI,
		Scopes:      Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}

	return cfg.AuthCodeURL(p.Verifier,
		oauth2.SetAuthURLParam("code", "true"),
		oauth2.SetAuthURLParam("code_challenge", p.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", p.Method),
	)
}
