package auth

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/oauth2"
)

// stateLength is the length of the CSRF state token. The nanoid alphabet is URL-safe.
const stateLength = 32

// PKCE is the per-attempt secret material. It lives only in memory and must
// never be logged or written to disk.
type PKCE struct {
	// State is echoed back by the authorization server on the callback.
	State string

	// Verifier is sent only with the final token request.
	Verifier string
}

// NewPKCE generates a fresh state and code verifier from crypto/rand.
func NewPKCE() (*PKCE, error) {
	state, err := gonanoid.New(stateLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	return &PKCE{
		State:    state,
		Verifier: oauth2.GenerateVerifier(),
	}, nil
}

// Challenge returns the S256 code challenge derived from the verifier.
func (p *PKCE) Challenge() string {
	return Challenge(p.Verifier)
}

// Challenge computes BASE64URL(SHA256(verifier)) without padding.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// String hides the secrets when the value ends up in a log line.
func (p *PKCE) String() string {
	return "PKCE{redacted}"
}
