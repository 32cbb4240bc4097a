package shell

import (
	"context"
	"sync"
)

// MockRunner records commands instead of executing them.
type MockRunner struct {
	mu       sync.Mutex
	commands []Command
	results  map[string]error
}

// NewMockRunner creates a new MockRunner where every command succeeds.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		results: make(map[string]error),
	}
}

// SetResult makes the command whose argv joins to cmd return err.
func (m *MockRunner) SetResult(cmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[cmd] = err
}

func (m *MockRunner) Run(ctx context.Context, c Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(c.Args) == 0 {
		return ErrEmptyCommand
	}
	m.commands = append(m.commands, c)
	return m.results[c.String()]
}

// Commands returns the recorded commands in call order.
func (m *MockRunner) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// CommandStrings returns the recorded argv strings in call order.
func (m *MockRunner) CommandStrings() []string {
	cmds := m.Commands()
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.String())
	}
	return out
}
