package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// maxArchiveRedirects bounds the redirects followed while resolving the archive link.
const maxArchiveRedirects = 3

// Client implements TemplateSource using the GitHub API
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client
func NewClient(token string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// NewClientWithoutAuth creates a GitHub client without authentication (for public templates)
func NewClientWithoutAuth() *Client {
	return &Client{
		client: github.NewClient(nil),
	}
}

// NewClientFromToken creates an authenticated client, or an anonymous one for an empty token.
func NewClientFromToken(token string) *Client {
	if token == "" {
		return NewClientWithoutAuth()
	}
	return NewClient(token)
}

// ArchiveURL resolves the tarball link for repo.
func (c *Client) ArchiveURL(ctx context.Context, repo Repo) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: repo.Ref}

	link, _, err := c.client.Repositories.GetArchiveLink(ctx, repo.Owner, repo.Name, github.Tarball, opts, maxArchiveRedirects)
	if err != nil {
		return "", fmt.Errorf("failed to resolve archive for %s: %w", repo, err)
	}
	return link.String(), nil
}
