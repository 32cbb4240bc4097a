package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrStateMismatch is returned when the callback state differs from the one
	// embedded in the authorization URL.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrNoCode is returned when the callback carries no authorization code.
	ErrNoCode = errors.New("no code received")

	// ErrTimeout is returned when the flow does not finish within its budget.
	ErrTimeout = errors.New("authorization timed out")

	// ErrAlreadyServing is returned when Serve is called twice.
	ErrAlreadyServing = errors.New("callback server already serving")
)

// ProviderError is an error reported by the authorization server on the callback,
// e.g. access_denied when the user rejects the consent screen.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// TokenError is an error response from the token endpoint.
type TokenError struct {
	Code        string
	Description string
	Err         error
}

func (e *TokenError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("token exchange failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("token exchange failed: %s", e.Code)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}
