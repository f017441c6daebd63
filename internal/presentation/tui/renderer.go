package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// defaultWidth is used when the terminal size is unknown.
const defaultWidth = 80

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or a default.
func Width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// NewRenderer returns a function that renders bot messages as markdown using glamour.
// Word wrapping follows the width of w.
func NewRenderer(w io.Writer) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(Width(w)-4),
		glamour.WithEmoji(),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}

	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown, err
		}
		return strings.TrimSpace(out), nil
	}
}

// OptionStyler formats a numbered option line.
type OptionStyler func(n int, label string) string

// NewOptionStyler styles option numbers for the color profile of w.
func NewOptionStyler(w io.Writer) OptionStyler {
	out := termenv.NewOutput(w)
	return func(n int, label string) string {
		num := out.String(fmt.Sprintf("%2d)", n)).Foreground(out.Color("#f59e0b")).Bold()
		return fmt.Sprintf("  %s %s", num, label)
	}
}

// PlainOptions formats option lines without styling.
func PlainOptions(n int, label string) string {
	return fmt.Sprintf("  %2d) %s", n, label)
}
