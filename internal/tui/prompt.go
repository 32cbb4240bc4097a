// Package tui renders prompts, spinners and styled messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts a prompt or a running spinner.
var ErrCancelled = errors.New("cancelled")

// InputPrompt asks for free text.
type InputPrompt struct {
	Title       string
	Description string
	Placeholder string

	// Default is used when the user submits an empty answer.
	Default  string
	Validate func(string) error
}

// Option is one choice of a SelectPrompt.
type Option struct {
	Label string
	Value string
}

// SelectPrompt asks for exactly one of Options.
type SelectPrompt struct {
	Title       string
	Description string
	Options     []Option
	Default     string
}

// Prompter asks the user questions. Implementations return ErrCancelled when
// the user aborts.
type Prompter interface {
	Input(ctx context.Context, p InputPrompt) (string, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
	Select(ctx context.Context, p SelectPrompt) (string, error)
}

// HuhPrompter renders prompts with huh forms.
type HuhPrompter struct {
	in         io.Reader
	out        io.Writer
	theme      *huh.Theme
	accessible bool
}

// NewHuhPrompter creates a prompter reading from in and drawing to out. When
// in is not a terminal the forms fall back to line-based accessible mode.
func NewHuhPrompter(in io.Reader, out io.Writer) *HuhPrompter {
	return &HuhPrompter{
		in:         in,
		out:        out,
		theme:      NewHuhTheme(),
		accessible: !isTerminal(in),
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(p.theme).
		WithShowHelp(false).
		WithAccessible(p.accessible).
		WithInput(p.in).
		WithOutput(p.out)

	err := form.RunWithContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted), errors.Is(ctx.Err(), context.Canceled):
		return ErrCancelled
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("prompt failed: %w", err)
	}
}

func (p *HuhPrompter) Input(ctx context.Context, prompt InputPrompt) (string, error) {
	value := ""

	field := huh.NewInput().
		Title(prompt.Title).
		Description(prompt.Description).
		Placeholder(prompt.Placeholder).
		Value(&value)
	if prompt.Validate != nil {
		field = field.Validate(func(v string) error {
			if v == "" {
				v = prompt.Default
			}
			return prompt.Validate(v)
		})
	}

	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	if value == "" {
		value = prompt.Default
	}
	return value, nil
}

func (p *HuhPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	value := def

	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&value)

	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return value, nil
}

func (p *HuhPrompter) Select(ctx context.Context, prompt SelectPrompt) (string, error) {
	if len(prompt.Options) == 0 {
		return "", fmt.Errorf("select %q has no options", prompt.Title)
	}

	value := prompt.Default
	if value == "" {
		value = prompt.Options[0].Value
	}

	opts := make([]huh.Option[string], 0, len(prompt.Options))
	for _, o := range prompt.Options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}

	field := huh.NewSelect[string]().
		Title(prompt.Title).
		Description(prompt.Description).
		Options(opts...).
		Value(&value)

	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}
