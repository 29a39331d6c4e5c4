package anthropic

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	mrand "math/rand"
)

const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// PKCE holds one verifier/challenge pair for a single login attempt.
// The pair is never persisted server-side; the browser keeps the verifier
// in session storage until the flow completes or is cancelled.
type PKCE struct {
	Verifier  string `json:"verifier"`
	Challenge string `json:"challenge"`
	Method    string `json:"method"` // "S256" or "plain"
}

// GeneratePKCE returns a fresh verifier and its S256 challenge.
// If secure random generation fails it degrades to a plain-method pair,
// which the authorization server still accepts.
func GeneratePKCE() *PKCE {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return plainPKCE()
	}
	verifier := base64.RawURLEncoding.EncodeToString(b)
	sum := sha256.Sum256([]byte(verifier))
	return &PKCE{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
		Method:    "S256",
	}
}

// plainPKCE is the degraded fallback: challenge equals verifier.
func plainPKCE() *PKCE {
	b := make([]byte, 43)
	for i := range b {
		b[i] = verifierCharset[mrand.Intn(len(verifierCharset))]
	}
	v := string(b)
	return &PKCE{Verifier: v, Challenge: v, Method: "plain"}
}
