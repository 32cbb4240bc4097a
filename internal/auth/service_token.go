package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
)

// ServiceTokenRequest is the body of the service-token exchange.
type ServiceTokenRequest struct {
	Name       string   `json:"name"`
	Scopes     []string `json:"scopes"`
	TTLSeconds int64    `json:"ttlSeconds"`
}

// NewServiceTokenRequest builds a request for a token valid for ttl. The server
// may cap the TTL.
func NewServiceTokenRequest(name string, scopes []string, ttl time.Duration) ServiceTokenRequest {
	return ServiceTokenRequest{
		Name:       name,
		Scopes:     scopes,
		TTLSeconds: int64(ttl / time.Second),
	}
}

// ServiceToken is the narrower-scoped token returned by the exchange.
type ServiceToken struct {
	Token string

	// ExpiresAt is the effective expiry reported by the server. Zero when the
	// server did not report one; callers then treat the token as opaque until
	// it is rejected.
	ExpiresAt time.Time
}

type serviceTokenResponse struct {
	Token      string     `json:"token"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	TTLSeconds *int64     `json:"ttlSeconds,omitempty"`
}

// ExchangeServiceToken trades an access token for a service token by POSTing
// req to endpoint with the access token as bearer credential.
func ExchangeServiceToken(ctx context.Context, hc *http.Client, endpoint string, access *oauth2.Token, req ServiceTokenRequest) (*ServiceToken, error) {
	if access == nil || access.AccessToken == "" {
		return nil, fmt.Errorf("service token exchange requires an access token")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service token request: %w", err)
	}

	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: access.AccessToken,
		TokenType:   "Bearer",
	}))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build service token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	requestedAt := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("service token request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read service token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("service token request failed with status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed serviceTokenResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse service token response: %w", err)
	}
	if parsed.Token == "" {
		return nil, fmt.Errorf("service token response is missing token")
	}

	token := &ServiceToken{Token: parsed.Token}
	switch {
	case parsed.ExpiresAt != nil:
		token.ExpiresAt = *parsed.ExpiresAt
	case parsed.TTLSeconds != nil:
		token.ExpiresAt = requestedAt.Add(time.Duration(*parsed.TTLSeconds) * time.Second)
	}
	return token, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
