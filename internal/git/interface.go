package git

import (
	"context"
)

// GitClient provides the git operations the scaffolder needs.
//
// Every operation takes the repository directory explicitly; the process
// working directory is never changed.
type GitClient interface {
	// IsInsideWorkTree reports whether dir already belongs to a git work tree.
	IsInsideWorkTree(ctx context.Context, dir string) bool

	// Init creates a new repository in dir.
	Init(ctx context.Context, dir string) error

	// AddAll stages every file in dir.
	AddAll(ctx context.Context, dir string) error

	// Commit records staged changes with message.
	Commit(ctx context.Context, dir, message string) error
}

// InitialCommitMessage is used for the first commit of a scaffolded project.
const InitialCommitMessage = "Initial commit"

// InitRepository runs init, add and commit in order, stopping at the first failure.
func InitRepository(ctx context.Context, client GitClient, dir string) error {
	if err := client.Init(ctx, dir); err != nil {
		return err
	}
	if err := client.AddAll(ctx, dir); err != nil {
		return err
	}
	return client.Commit(ctx, dir, InitialCommitMessage)
}
