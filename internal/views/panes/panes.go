// Package panes renders the symbol and metric selection lists and the probe
// table.
package panes

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wiredtiger/wttrace/internal/probe"
	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/theme"
)

// Lists is the read side of the focus controller the panes draw from.
type Lists interface {
	SymbolCursor() int
	MetricCursor() selection.Metric
	SymbolMarked(row int) bool
	MetricMarked(m selection.Metric) bool
}

// Window returns the [start, end) rows of an n-row list that keep cursor
// visible in height rows, centring it where possible.
func Window(n, cursor, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func row(text string, marked, current, focused bool, color lipgloss.Color) string {
	marker := lipgloss.NewStyle().Foreground(color).Render(theme.Marker(marked))
	line := marker + " " + text
	if current {
		style := theme.StyleSelected
		if !focused {
			style = lipgloss.NewStyle().Bold(true)
		}
		return style.Render("▸ " + marker + " " + text)
	}
	return "  " + line
}

// Symbols renders the symbol list.
func Symbols(names []string, l Lists, width, height int, focused bool) string {
	innerW := width - 2
	if innerW < 10 {
		innerW = 10
	}
	visible := height - 3
	if visible < 1 {
		visible = 1
	}

	title := theme.StyleHeader.Render(fmt.Sprintf(" Symbols (%d) ", len(names)))
	start, end := Window(len(names), l.SymbolCursor(), visible)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		name := names[i]
		if room := innerW - 6; room > 3 && len(name) > room {
			name = name[:room-3] + "..."
		}
		lines = append(lines, row(name, l.SymbolMarked(i), i == l.SymbolCursor(), focused, theme.ColorFocus))
	}
	if len(lines) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no symbols"))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
	return theme.Pane(focused).Width(innerW).Render(content)
}

// Metrics renders the metric list for the highlighted symbol.
func Metrics(symbol string, l Lists, width int, focused bool) string {
	innerW := width - 2
	if innerW < 10 {
		innerW = 10
	}
	title := theme.StyleHeader.Render(" Metrics ")
	if symbol != "" {
		title += theme.StyleDimmed.Render(" " + symbol)
	}
	var lines []string
	for _, m := range selection.Metrics() {
		lines = append(lines, row(m.String(), l.MetricMarked(m), m == l.MetricCursor(), focused, theme.MetricColor(m.String())))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
	return theme.Pane(focused).Width(innerW).Render(content)
}

// Probes renders the running probe table with the latest resource sample.
func Probes(table []probe.ProbeProcess, usage map[selection.Metric]probe.Usage, now time.Time, width int) string {
	innerW := width - 2
	if innerW < 20 {
		innerW = 20
	}
	title := theme.StyleHeader.Render(" Probes ")
	if len(table) == 0 {
		body := theme.StyleDimmed.Render("  none running, press r to start")
		return theme.StyleBorder.Width(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
	}

	header := theme.StyleDimmed.Render(fmt.Sprintf("  %-10s %7s %5s %12s %6s %8s", "metric", "pid", "syms", "started", "cpu", "rss"))
	lines := []string{header}
	for _, p := range table {
		cpu, rss := "-", "-"
		if u, ok := usage[p.Metric]; ok && u.Alive && u.PID == p.PID {
			cpu = fmt.Sprintf("%.1f%%", u.CPUPercent)
			rss = humanize.IBytes(u.RSS)
		}
		state := lipgloss.NewStyle().Foreground(theme.StateColor(p.State.String())).Render("●")
		metric := lipgloss.NewStyle().Foreground(theme.MetricColor(p.Metric.String())).Render(fmt.Sprintf("%-10s", p.Metric))
		lines = append(lines, fmt.Sprintf("%s %s %7d %5d %12s %6s %8s",
			state, metric, p.PID, len(p.Symbols), humanize.RelTime(p.StartedAt, now, "ago", "from now"), cpu, rss))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
	return theme.StyleBorder.Width(innerW).Render(content)
}
