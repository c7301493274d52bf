package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

var (
	colorAccent  = lipgloss.Color("#7C9CBF")
	colorMuted   = lipgloss.Color("240")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

const (
	iconSuccess = "✓"
	iconWarning = "⚠"
	iconError   = "✗"
)

// isTTY reports whether w is a terminal. Styling is skipped otherwise.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printStyled prints a message prefixed with an icon, styled only on a terminal.
func printStyled(w io.Writer, icon string, style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	if isTTY(w) {
		fmt.Fprintf(w, "%s %s\n", style.Render(icon), msg)
		return
	}

	fmt.Fprintf(w, "%s %s\n", icon, msg)
}

// outputQuote prints one quote as text followed by its category.
func outputQuote(w io.Writer, q domain.Quote) {
	category := "[" + q.Category + "]"

	if isTTY(w) {
		fmt.Fprintf(w, "%s %s\n", q.Text, categoryStyle.Render(category))
		return
	}

	fmt.Fprintf(w, "%s %s\n", q.Text, category)
}

// outputJSON writes v as indented JSON to the command's stdout.
func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// outputError prints an error to w. Validation errors get a hint.
func outputError(w io.Writer, err error) {
	printStyled(w, iconError, errorStyle, "Error: %s", err)

	if domain.IsValidation(err) {
		hint := "check the arguments and try again"
		if isTTY(w) {
			hint = mutedStyle.Render(hint)
		}

		fmt.Fprintf(w, "  %s\n", hint)
	}
}
