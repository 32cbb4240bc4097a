// Package shell runs external commands without attaching them to the terminal.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every command unless Command.Timeout overrides it.
const DefaultTimeout = 60 * time.Second

// ErrEmptyCommand is returned when Args is empty.
var ErrEmptyCommand = errors.New("command is empty")

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("command timed out")

// Command describes one child process.
type Command struct {
	// Dir is the working directory.
	Dir string

	// Args is argv; Args[0] is resolved through PATH.
	Args []string

	// Env overlays the inherited environment.
	Env map[string]string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.Code)
}

// Runner executes commands.
type Runner interface {
	// Run returns nil on exit code 0, *ExitError on a non-zero exit, and the
	// spawn error when the process could not be started.
	Run(ctx context.Context, cmd Command) error
}

// OSRunner implements Runner with os/exec. Output streams are discarded so
// child processes cannot draw over interactive prompts.
type OSRunner struct{}

// NewOSRunner creates a new OSRunner
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run executes the command and waits for it to exit.
func (r *OSRunner) Run(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return ErrEmptyCommand
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	// nil streams are connected to the null device
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.WaitDelay = time.Second

	if len(c.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", c.String(), err)
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, c.String())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: c.String(), Code: exitErr.ExitCode()}
	}

	return fmt.Errorf("failed to run %q: %w", c.String(), err)
}
