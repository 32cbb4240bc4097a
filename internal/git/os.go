package git

import (
	"context"
	"fmt"

	"github.com/fiberplane/create-honc-app/internal/shell"
)

// OSGitClient implements GitClient by running the git binary
type OSGitClient struct {
	runner shell.Runner
}

// NewOSGitClient creates a new OSGitClient
func NewOSGitClient(runner shell.Runner) *OSGitClient {
	return &OSGitClient{runner: runner}
}

// IsInsideWorkTree runs `git rev-parse --is-inside-work-tree`; any failure means no.
func (g *OSGitClient) IsInsideWorkTree(ctx context.Context, dir string) bool {
	err := g.runner.Run(ctx, shell.Command{
		Dir:  dir,
		Args: []string{"git", "rev-parse", "--is-inside-work-tree"},
	})
	return err == nil
}

// Init creates a repository with main as the initial branch
func (g *OSGitClient) Init(ctx context.Context, dir string) error {
	if err := g.run(ctx, dir, "init", "-b", "main"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}
	return nil
}

// AddAll stages all files
func (g *OSGitClient) AddAll(ctx context.Context, dir string) error {
	if err := g.run(ctx, dir, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return nil
}

// Commit creates a commit
func (g *OSGitClient) Commit(ctx context.Context, dir, message string) error {
	if message == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	if err := g.run(ctx, dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

func (g *OSGitClient) run(ctx context.Context, dir string, args ...string) error {
	return g.runner.Run(ctx, shell.Command{
		Dir:  dir,
		Args: append([]string{"git"}, args...),
	})
}
