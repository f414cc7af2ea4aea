// Package focus is the pane focus and input state machine. It routes
// abstract input events to the focused pane and applies selection toggles
// to the matrix. It knows nothing about keys or terminals.
package focus

import "fmt"

// Pane is a focusable region of the console.
type Pane int

const (
	SymbolPane Pane = iota
	MetricPane
	LogPane
	paneCount
)

func (p Pane) String() string {
	switch p {
	case SymbolPane:
		return "symbols"
	case MetricPane:
		return "metrics"
	case LogPane:
		return "log"
	default:
		return fmt.Sprintf("pane(%d)", int(p))
	}
}

// Event is an input command, already decoupled from the key that produced
// it.
type Event int

const (
	NavigateUp Event = iota
	NavigateDown
	MoveLeft
	MoveRight
	ToggleSelect
	// Select is reserved. Handling it changes nothing and requests no
	// render.
	Select
	FocusNext
	StartProbes
	StopProbes
	Search
	ExportProfile
	Quit
)

var eventNames = [...]string{
	NavigateUp:    "navigate-up",
	NavigateDown:  "navigate-down",
	MoveLeft:      "move-left",
	MoveRight:     "move-right",
	ToggleSelect:  "toggle-select",
	Select:        "select",
	FocusNext:     "focus-next",
	StartProbes:   "start-probes",
	StopProbes:    "stop-probes",
	Search:        "search",
	ExportProfile: "export-profile",
	Quit:          "quit",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}
