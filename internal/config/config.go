// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fiberplane/create-honc-app/internal/auth"
	"github.com/fiberplane/create-honc-app/internal/github"
	"github.com/spf13/viper"
)

// Keys and the environment variables bound to them.
var envBindings = map[string][]string{
	"user_agent":                   {"npm_config_user_agent"},
	"template.repo":                {"CREATE_HONC_TEMPLATE_REPO"},
	"template.ref":                 {"CREATE_HONC_TEMPLATE_REF"},
	"github.token":                 {"GH_TOKEN", "GITHUB_TOKEN"},
	"auth.timeout":                 {"CREATE_HONC_AUTH_TIMEOUT"},
	"debug":                        {"CREATE_HONC_DEBUG"},
	"neon.client_id":               {"NEON_OAUTH_CLIENT_ID"},
	"neon.auth_url":                {"NEON_OAUTH_AUTH_URL"},
	"neon.token_url":               {"NEON_OAUTH_TOKEN_URL"},
	"neon.api_url":                 {"NEON_API_URL"},
	"fiberplane.client_id":         {"FIBERPLANE_OAUTH_CLIENT_ID"},
	"fiberplane.auth_url":          {"FIBERPLANE_OAUTH_AUTH_URL"},
	"fiberplane.token_url":         {"FIBERPLANE_OAUTH_TOKEN_URL"},
	"fiberplane.service_token_url": {"FIBERPLANE_SERVICE_TOKEN_URL"},
}

var defaults = map[string]any{
	"template.repo":                "fiberplane/create-honc-app",
	"template.ref":                 github.DefaultRef,
	"auth.timeout":                 auth.DefaultTimeout.String(),
	"debug":                        false,
	"neon.client_id":               "create-honc-app",
	"neon.auth_url":                "https://oauth2.neon.tech/oauth2/auth",
	"neon.token_url":               "https://oauth2.neon.tech/oauth2/token",
	"neon.api_url":                 "https://console.neon.tech/api/v2",
	"fiberplane.client_id":         "create-fiberplane",
	"fiberplane.auth_url":          "https://fiberplane.com/oauth/authorize",
	"fiberplane.token_url":         "https://fiberplane.com/oauth/token",
	"fiberplane.service_token_url": "https://fiberplane.com/api/tokens",
}

// Neon OAuth scopes needed to create a project.
var neonScopes = []string{
	"openid",
	"offline",
	"offline_access",
	"urn:neoncloud:projects:create",
	"urn:neoncloud:projects:read",
}

// Config holds settings shared by both CLI variants.
type Config struct {
	UserAgent    string
	TemplateRepo github.Repo
	GitHubToken  string
	AuthTimeout  time.Duration
	Debug        bool

	NeonClientID string
	NeonAuthURL  string
	NeonTokenURL string
	NeonAPIURL   string

	FiberplaneClientID        string
	FiberplaneAuthURL         string
	FiberplaneTokenURL        string
	FiberplaneServiceTokenURL string
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	repo, err := github.ParseRepo(v.GetString("template.repo"))
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE_HONC_TEMPLATE_REPO: %w", err)
	}
	if ref := strings.TrimSpace(v.GetString("template.ref")); ref != "" && !strings.Contains(v.GetString("template.repo"), "#") {
		repo.Ref = ref
	}

	timeout, err := parseTimeout(v.GetString("auth.timeout"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid CREATE_HONC_AUTH_TIMEOUT: %q", v.GetString("auth.timeout"))
	}

	return &Config{
		UserAgent:    v.GetString("user_agent"),
		TemplateRepo: repo,
		GitHubToken:  v.GetString("github.token"),
		AuthTimeout:  timeout,
		Debug:        v.GetBool("debug"),

		NeonClientID: v.GetString("neon.client_id"),
		NeonAuthURL:  v.GetString("neon.auth_url"),
		NeonTokenURL: v.GetString("neon.token_url"),
		NeonAPIURL:   v.GetString("neon.api_url"),

		FiberplaneClientID:        v.GetString("fiberplane.client_id"),
		FiberplaneAuthURL:         v.GetString("fiberplane.auth_url"),
		FiberplaneTokenURL:        v.GetString("fiberplane.token_url"),
		FiberplaneServiceTokenURL: v.GetString("fiberplane.service_token_url"),
	}, nil
}

// NeonAuth returns the OAuth client settings for Neon.
func (c *Config) NeonAuth() auth.Config {
	return auth.Config{
		ClientID: c.NeonClientID,
		AuthURL:  c.NeonAuthURL,
		TokenURL: c.NeonTokenURL,
		Scopes:   neonScopes,
		Timeout:  c.AuthTimeout,
	}
}

// FiberplaneAuth returns the OAuth client settings for Fiberplane. Login goes
// through GitHub.
func (c *Config) FiberplaneAuth() auth.Config {
	return auth.Config{
		ClientID:   c.FiberplaneClientID,
		AuthURL:    c.FiberplaneAuthURL,
		TokenURL:   c.FiberplaneTokenURL,
		Scopes:     []string{"openid", "profile"},
		AuthParams: map[string]string{"provider": "github"},
		Timeout:    c.AuthTimeout,
	}
}

// parseTimeout accepts Go durations ("90s") and bare seconds ("90").
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
