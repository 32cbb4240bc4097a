package git

import (
	"context"
	"fmt"
	"sync"
)

// MockGitClient implements GitClient in memory for testing
type MockGitClient struct {
	mu sync.Mutex

	repos     map[string]bool
	staged    map[string]bool
	commits   map[string][]string
	failures  map[string]error
	workTrees map[string]bool
}

// NewMockGitClient creates a new MockGitClient
func NewMockGitClient() *MockGitClient {
	return &MockGitClient{
		repos:     make(map[string]bool),
		staged:    make(map[string]bool),
		commits:   make(map[string][]string),
		failures:  make(map[string]error),
		workTrees: make(map[string]bool),
	}
}

// SetInsideWorkTree marks dir as already belonging to a repository.
func (m *MockGitClient) SetInsideWorkTree(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workTrees[dir] = true
}

// FailOn makes the named operation ("init", "add", "commit") return err.
func (m *MockGitClient) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *MockGitClient) IsInsideWorkTree(ctx context.Context, dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workTrees[dir] || m.repos[dir]
}

func (m *MockGitClient) Init(ctx context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["init"]; err != nil {
		return err
	}
	m.repos[dir] = true
	return nil
}

func (m *MockGitClient) AddAll(ctx context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["add"]; err != nil {
		return err
	}
	if !m.repos[dir] {
		return fmt.Errorf("not a git repository: %s", dir)
	}
	m.staged[dir] = true
	return nil
}

func (m *MockGitClient) Commit(ctx context.Context, dir, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures["commit"]; err != nil {
		return err
	}
	if !m.staged[dir] {
		return fmt.Errorf("nothing staged in %s", dir)
	}
	m.commits[dir] = append(m.commits[dir], message)
	m.staged[dir] = false
	return nil
}

// Commits returns the commit messages recorded for dir.
func (m *MockGitClient) Commits(dir string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commits[dir]...)
}

// IsRepo reports whether Init ran for dir.
func (m *MockGitClient) IsRepo(dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repos[dir]
}
