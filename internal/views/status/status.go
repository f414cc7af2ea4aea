// Package status renders the one-line session status bar.
package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wiredtiger/wttrace/internal/theme"
)

// Model holds the status bar state. The session copies its counters in on
// every stats tick.
type Model struct {
	ProbeState    string
	Probes        int
	ListenerState string
	ListenerAddr  string
	Selected      int
	RelayClients  int
	Width         int

	datagrams uint64
	lastCount uint64
	lastTick  time.Time

	// rate is the spring-smoothed datagrams per second.
	rate     float64
	velocity float64
	spring   harmonica.Spring
}

// New creates a status bar model whose rate readout settles over a few
// ticks of the given interval.
func New(interval time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{
		ProbeState:    "idle",
		ListenerState: "unbound",
		spring:        harmonica.NewSpring(interval.Seconds(), 1.5, 1.0),
	}
}

// Observe records the running datagram total at time at and advances the
// rate spring one step.
func (m *Model) Observe(datagrams uint64, at time.Time) {
	m.datagrams = datagrams
	if m.lastTick.IsZero() {
		m.lastTick = at
		m.lastCount = datagrams
		return
	}
	elapsed := at.Sub(m.lastTick).Seconds()
	if elapsed <= 0 {
		return
	}
	target := float64(datagrams-m.lastCount) / elapsed
	m.rate, m.velocity = m.spring.Update(m.rate, m.velocity, target)
	if m.rate < 0 {
		m.rate = 0
	}
	m.lastTick = at
	m.lastCount = datagrams
}

// Rate returns the smoothed datagram rate per second.
func (m Model) Rate() float64 {
	return m.rate
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	probes := lipgloss.NewStyle().Foreground(theme.StateColor(m.ProbeState)).
		Render(fmt.Sprintf("probes: %s (%d)", m.ProbeState, m.Probes))

	listener := "listener: " + m.ListenerState
	if m.ListenerAddr != "" {
		listener += " " + m.ListenerAddr
	}
	listenerStr := lipgloss.NewStyle().Foreground(theme.StateColor(m.ListenerState)).Render(listener)

	traffic := fmt.Sprintf("%s datagrams  %.1f/s", humanize.Comma(int64(m.datagrams)), m.rate)
	content := probes + sep + listenerStr + sep +
		fmt.Sprintf("%d selected", m.Selected) + sep + traffic
	if m.RelayClients > 0 {
		content += sep + fmt.Sprintf("relay: %d", m.RelayClients)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
