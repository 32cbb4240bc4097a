package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct {
	err error
}

// spinnerModel shows title next to a spinner until doneMsg arrives.
type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
	err     error
}

func newSpinnerModel(title string) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(CommandStyle),
		),
		title: title,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Interrupt
		}
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.title)
}

// Spinner shows progress while long-running work executes.
type Spinner struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewSpinner creates a spinner drawing to out. When in is not a terminal
// the title is printed once instead of animated.
func NewSpinner(in io.Reader, out io.Writer) *Spinner {
	return &Spinner{in: in, out: out, interactive: isTerminal(in)}
}

// Run executes fn while showing title and returns fn's error. Pressing
// ctrl+c cancels the context passed to fn.
func (s *Spinner) Run(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if !s.interactive {
		_, _ = fmt.Fprintln(s.out, SubtleStyle.Render(title))
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newSpinnerModel(title),
		tea.WithContext(ctx),
		tea.WithInput(s.in),
		tea.WithOutput(s.out),
	)

	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-result
		return ErrCancelled
	}
	return <-result
}
