// Package theme provides the Lip Gloss color palette and reusable styles
// for the trace console. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Metric colors.
var (
	ColorLatency   = lipgloss.Color("#3b82f6")
	ColorFrequency = lipgloss.Color("#22c55e")
	ColorStack     = lipgloss.Color("#a855f7")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Log kind colors.
var (
	ColorTrace = lipgloss.Color("#06b6d4")
	ColorInfo  = lipgloss.Color("#9ca3af")
	ColorDebug = lipgloss.Color("#4b5563")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorFocus   = lipgloss.Color("#22c55e")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorCursor  = lipgloss.Color("#1d4ed8")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// MetricColor returns the color for a metric name.
func MetricColor(metric string) lipgloss.Color {
	switch metric {
	case "latency":
		return ColorLatency
	case "frequency":
		return ColorFrequency
	case "stack":
		return ColorStack
	default:
		return ColorDefault
	}
}

// KindColor returns the color for a log entry kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "trace":
		return ColorTrace
	case "error":
		return ColorDanger
	case "warn":
		return ColorWarning
	case "debug":
		return ColorDebug
	default:
		return ColorInfo
	}
}

// StateColor returns the color for a probe or listener state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "running", "listening":
		return ColorHealthy
	case "starting", "stopping", "terminating":
		return ColorWarning
	case "failed":
		return ColorDanger
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleFocused = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(ColorCursor)
)

// Pane returns the border style for a pane, highlighted when focused.
func Pane(focused bool) lipgloss.Style {
	if focused {
		return StyleFocused
	}
	return StyleBorder
}

// Marker returns the selection marker glyph.
func Marker(selected bool) string {
	if selected {
		return "●"
	}
	return "○"
}
