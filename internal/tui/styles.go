package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	honcOrange = lipgloss.Color("#FF5B04")
	honcBlue   = lipgloss.Color("#5EA1FF")
	subtleGray = lipgloss.Color("#888888")

	// Banner printed before the first prompt
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(honcOrange).
			MarginBottom(1)

	// Step headers in the summary
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(honcOrange).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	// Shell commands the user is asked to run
	CommandStyle = lipgloss.NewStyle().
			Foreground(honcBlue)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(subtleGray)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(honcOrange).
			Padding(1, 2)
)

// NewHuhTheme returns the orange/blue theme used by every prompt.
func NewHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(honcOrange)
	t.Focused.Card = t.Focused.Base
	t.Focused.Title = t.Focused.Title.Foreground(honcOrange).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(subtleGray)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(lipgloss.Color("#FF0000"))
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(lipgloss.Color("#FF0000"))
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(honcBlue)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(honcBlue)
	t.Focused.Option = t.Focused.Option.Foreground(lipgloss.Color("#DDDDDD"))
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(lipgloss.Color("#FFFFFF")).Background(honcOrange)
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(subtleGray).Background(lipgloss.Color("#222222"))
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(honcBlue)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(honcBlue)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(subtleGray)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Card = t.Blurred.Base
	t.Blurred.Title = t.Blurred.Title.Foreground(subtleGray).Bold(false)

	return t
}
