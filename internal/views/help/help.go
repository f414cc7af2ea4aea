// Package help renders the key reference overlay.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/wiredtiger/wttrace/internal/theme"
)

// Markdown builds the overlay source: a key table followed by a short
// description of the panes.
func Markdown(bindings []key.Binding) string {
	var b strings.Builder
	b.WriteString("# wttrace\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, kb := range bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\n## Panes\n\n")
	b.WriteString("- **Symbols**: the functions exported by the library. A filled marker means the symbol is traced for at least one metric.\n")
	b.WriteString("- **Metrics**: what to collect for the highlighted symbol. Press enter to toggle.\n")
	b.WriteString("- **Trace Output**: probe datagrams and session messages. Scroll with up and down when focused.\n")
	b.WriteString("\nSelections made while probes run apply the next time probes are started.\n")
	return b.String()
}

// Render formats md for the terminal. style is a glamour standard style
// name such as "dark", "light" or "notty".
func Render(md string, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// View renders the overlay inside a bordered panel. A rendering failure
// falls back to the raw markdown.
func View(bindings []key.Binding, width int, style string) string {
	innerW := width - 4
	md := Markdown(bindings)
	out, err := Render(md, innerW-4, style)
	if err != nil {
		out = md
	}
	footer := theme.StyleDimmed.Render("esc or ? to close")
	return lipgloss.NewStyle().
		Width(innerW).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, strings.TrimRight(out, "\n"), footer))
}
