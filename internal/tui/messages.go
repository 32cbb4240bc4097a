package tui

import (
	"fmt"
	"io"
	"strings"
)

// Banner prints the tool title.
func Banner(w io.Writer, title, subtitle string) {
	_, _ = fmt.Fprintln(w, BannerStyle.Render(title))
	if subtitle != "" {
		_, _ = fmt.Fprintln(w, SubtleStyle.Render(subtitle))
	}
}

func Success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func Warn(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, WarningStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func Error(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func Info(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, SubtleStyle.Render(fmt.Sprintf(format, args...)))
}

// Recovery prints a failed step with the commands the user can run instead.
func Recovery(w io.Writer, what string, commands ...string) {
	Warn(w, "%s failed. You can do it manually:", what)
	for _, c := range commands {
		_, _ = fmt.Fprintln(w, "  "+CommandStyle.Render(c))
	}
}

// Box renders body in the bordered summary box.
func Box(body string) string {
	return BorderStyle.Render(strings.TrimRight(body, "\n"))
}
