package github

import (
	"context"
	"fmt"
	"sync"
)

// MockSource implements TemplateSource for testing
type MockSource struct {
	mu       sync.Mutex
	urls     map[string]string
	requests []Repo
}

// NewMockSource creates a new MockSource
func NewMockSource() *MockSource {
	return &MockSource{
		urls: make(map[string]string),
	}
}

// SetArchiveURL registers the URL returned for owner/name.
func (m *MockSource) SetArchiveURL(owner, name, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[owner+"/"+name] = url
}

func (m *MockSource) ArchiveURL(ctx context.Context, repo Repo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, repo)
	url, ok := m.urls[repo.Owner+"/"+repo.Name]
	if !ok {
		return "", fmt.Errorf("repository not found: %s/%s", repo.Owner, repo.Name)
	}
	return url, nil
}

// Requests returns every repo passed to ArchiveURL.
func (m *MockSource) Requests() []Repo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Repo(nil), m.requests...)
}
