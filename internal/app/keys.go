package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wiredtiger/wttrace/internal/focus"
)

// KeyMap defines all keyboard bindings for the console.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Select    key.Binding
	FocusNext key.Binding
	Start     key.Binding
	Stop      key.Binding
	Search    key.Binding
	Export    key.Binding
	Help      key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "symbols"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "metrics"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle metric"),
		),
		// Reserved; handled as a no-op.
		Select: key.NewBinding(
			key.WithKeys(" ", "space"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab", "ctrl+n"),
			key.WithHelp("tab", "next pane"),
		),
		Start: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "start probes"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop probes"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Export: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "export profile"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp is the footer line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusNext, k.Toggle, k.Start, k.Stop, k.Search, k.Help, k.Quit}
}

// FullHelp groups every binding for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.FocusNext, k.Search},
		{k.Start, k.Stop, k.Export},
		{k.Help, k.Escape, k.Quit},
	}
}

// All returns every binding in help order.
func (k KeyMap) All() []key.Binding {
	var out []key.Binding
	for _, group := range k.FullHelp() {
		out = append(out, group...)
	}
	return out
}

// eventFor maps a key press to an input event.
func (k KeyMap) eventFor(msg tea.KeyMsg) (focus.Event, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return focus.Quit, true
	case key.Matches(msg, k.FocusNext):
		return focus.FocusNext, true
	case key.Matches(msg, k.Up):
		return focus.NavigateUp, true
	case key.Matches(msg, k.Down):
		return focus.NavigateDown, true
	case key.Matches(msg, k.Left):
		return focus.MoveLeft, true
	case key.Matches(msg, k.Right):
		return focus.MoveRight, true
	case key.Matches(msg, k.Toggle):
		return focus.ToggleSelect, true
	case key.Matches(msg, k.Select):
		return focus.Select, true
	case key.Matches(msg, k.Start):
		return focus.StartProbes, true
	case key.Matches(msg, k.Stop):
		return focus.StopProbes, true
	case key.Matches(msg, k.Search):
		return focus.Search, true
	case key.Matches(msg, k.Export):
		return focus.ExportProfile, true
	}
	return 0, false
}
