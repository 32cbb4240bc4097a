// Package neon provisions Neon Postgres projects through the Neon API.
package neon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Neon console API root.
const DefaultBaseURL = "https://console.neon.tech/api/v2"

// ErrNoConnectionURI is returned when a created project reports no connection string.
var ErrNoConnectionURI = errors.New("neon project has no connection URI")

// Project is a created Neon project.
type Project struct {
	ID            string
	Name          string
	ConnectionURI string
}

// Client talks to the Neon API with an OAuth access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client authenticated with token. hc may be nil.
func NewClient(ctx context.Context, baseURL string, token *oauth2.Token, hc *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)),
		logger:     logger,
	}
}

type createProjectRequest struct {
	Project struct {
		Name string `json:"name"`
	} `json:"project"`
}

// CreateProject creates a project named name and returns its connection URI.
func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var body createProjectRequest
	body.Project.Name = name

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/projects", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build project request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("creating neon project", "name", name)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("neon project request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read neon response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("neon project request failed with status %d: %s", resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("failed to parse neon response")
	}

	project := &Project{
		ID:            gjson.GetBytes(data, "project.id").String(),
		Name:          gjson.GetBytes(data, "project.name").String(),
		ConnectionURI: gjson.GetBytes(data, "connection_uris.0.connection_uri").String(),
	}
	if project.ConnectionURI == "" {
		return nil, ErrNoConnectionURI
	}

	c.logger.Debug("neon project created", "id", project.ID)
	return project, nil
}
