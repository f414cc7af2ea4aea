// Package tracelog is the scrollable trace output pane. It holds both probe
// datagrams and the session's own log records.
package tracelog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wiredtiger/wttrace/internal/theme"
)

// DefaultScrollback is used when New is given a non-positive limit.
const DefaultScrollback = 500

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string // "trace", "info", "warn", "error", "debug"
	Message string
}

// Log is the pane's line buffer. Add may be called from any goroutine;
// the rest is used from the event loop.
type Log struct {
	mu         sync.Mutex
	entries    []Entry
	offset     int // scroll offset from the bottom
	scrollback int
	now        func() time.Time
}

// New creates an empty log keeping at most scrollback lines.
func New(scrollback int) *Log {
	if scrollback <= 0 {
		scrollback = DefaultScrollback
	}
	return &Log{scrollback: scrollback, now: time.Now}
}

// Add appends an entry and caps the buffer. A scrolled-back view stays
// on the lines it was showing.
func (l *Log) Add(kind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Time:    l.now(),
		Kind:    kind,
		Message: message,
	})
	if len(l.entries) > l.scrollback {
		l.entries = l.entries[len(l.entries)-l.scrollback:]
	}
	if l.offset > 0 {
		l.offset++
		l.clampLocked()
	}
}

// Entries returns a copy of the buffered lines, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of buffered lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Offset returns how many lines the view is scrolled back.
func (l *Log) Offset() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// Scroll moves the view; negative n scrolls back toward older lines.
func (l *Log) Scroll(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset -= n
	l.clampLocked()
}

func (l *Log) clampLocked() {
	max := len(l.entries) - 1
	if max < 0 {
		max = 0
	}
	if l.offset > max {
		l.offset = max
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the pane into a width x height box.
func (l *Log) View(width, height int, focused bool) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	innerW := width - 2
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 4
	if visibleLines < 1 {
		visibleLines = 1
	}

	title := theme.StyleHeader.Render(" Trace Output ")
	if len(l.entries) == 0 {
		body := theme.StyleDimmed.Render("  No trace output yet.")
		return theme.Pane(focused).Width(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
	}

	end := len(l.entries) - l.offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := l.entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(theme.KindColor(e.Kind)).Width(5).Render(e.Kind)
		msg := strings.ReplaceAll(e.Message, "\n", " ")
		if room := innerW - 20; room > 3 && len(msg) > room {
			msg = msg[:room-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}

	footer := theme.StyleDimmed.Render(fmt.Sprintf("%d lines", len(l.entries)))
	if l.offset > 0 {
		footer = theme.StyleDimmed.Render(fmt.Sprintf("↓ %d more  %d lines", l.offset, len(l.entries)))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), footer)
	return theme.Pane(focused).Width(innerW).Render(content)
}
