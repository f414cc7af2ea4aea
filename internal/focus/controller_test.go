package focus

import (
	"errors"
	"testing"

	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/symbols"
)

func newController(t *testing.T, names ...string) (*Controller, *selection.Matrix) {
	t.Helper()
	cat := symbols.NewCatalog(names)
	m := selection.NewMatrix(cat)
	return NewController(cat, m), m
}

func TestInitialState(t *testing.T) {
	c, _ := newController(t, "wt_open", "wt_close")
	if c.Focus() != SymbolPane {
		t.Errorf("initial focus = %v, want symbols", c.Focus())
	}
	if c.SymbolCursor() != 0 || c.MetricCursor() != selection.Latency {
		t.Errorf("cursors = %d/%v, want 0/latency", c.SymbolCursor(), c.MetricCursor())
	}
	if c.CurrentSymbol() != "wt_open" {
		t.Errorf("current = %q", c.CurrentSymbol())
	}
}

func TestPaneTransitions(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   Pane
		render bool
	}{
		{"right from symbols", []Event{MoveRight}, MetricPane, true},
		{"left from symbols is ignored", []Event{MoveLeft}, SymbolPane, false},
		{"right then left", []Event{MoveRight, MoveLeft}, SymbolPane, true},
		{"right from metrics is ignored", []Event{MoveRight, MoveRight}, MetricPane, false},
		{"focus next cycles", []Event{FocusNext}, MetricPane, true},
		{"focus next reaches log", []Event{FocusNext, FocusNext}, LogPane, true},
		{"focus next wraps", []Event{FocusNext, FocusNext, FocusNext}, SymbolPane, true},
		{"directional ignored in log", []Event{FocusNext, FocusNext, MoveLeft}, LogPane, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(t, "a", "b")
			var last Outcome
			for _, ev := range tt.events {
				last = c.Handle(ev)
			}
			if c.Focus() != tt.want {
				t.Errorf("focus = %v, want %v", c.Focus(), tt.want)
			}
			if last.Render != tt.render {
				t.Errorf("last render = %v, want %v", last.Render, tt.render)
			}
		})
	}
}

func TestNavigateSymbolsRefreshesMetricMarks(t *testing.T) {
	c, m := newController(t, "a", "b", "c")
	if err := m.Toggle("b", selection.Stack); err != nil {
		t.Fatal(err)
	}

	out := c.Handle(NavigateDown)
	if !out.Render || out.Toggled {
		t.Errorf("navigate outcome = %+v", out)
	}
	if c.CurrentSymbol() != "b" {
		t.Fatalf("current = %q, want b", c.CurrentSymbol())
	}
	if !c.MetricMarked(selection.Stack) || c.MetricMarked(selection.Latency) {
		t.Error("metric marks not refreshed for b")
	}

	c.Handle(NavigateDown)
	c.Handle(NavigateDown)
	if c.SymbolCursor() != 2 {
		t.Errorf("cursor = %d, want clamped to 2", c.SymbolCursor())
	}
	if c.MetricMarked(selection.Stack) {
		t.Error("stale mark after moving to c")
	}

	c.Handle(NavigateUp)
	c.Handle(NavigateUp)
	c.Handle(NavigateUp)
	if c.SymbolCursor() != 0 {
		t.Errorf("cursor = %d, want clamped to 0", c.SymbolCursor())
	}
}

func TestToggleInMetricPane(t *testing.T) {
	c, m := newController(t, "wt_open", "wt_close")
	c.Handle(MoveRight)
	c.Handle(NavigateDown)
	if c.MetricCursor() != selection.Frequency {
		t.Fatalf("metric cursor = %v", c.MetricCursor())
	}

	out := c.Handle(ToggleSelect)
	if !out.Render || !out.Toggled || out.Err != nil {
		t.Fatalf("toggle outcome = %+v", out)
	}
	if !m.IsSelected("wt_open", selection.Frequency) {
		t.Error("matrix not updated")
	}
	if !c.MetricMarked(selection.Frequency) || !c.SymbolMarked(0) {
		t.Error("markers not updated after toggle")
	}
	if c.SymbolMarked(1) {
		t.Error("unrelated symbol marked")
	}

	out = c.Handle(ToggleSelect)
	if !out.Toggled {
		t.Fatal("second toggle not applied")
	}
	if m.IsSelected("wt_open", selection.Frequency) || c.SymbolMarked(0) || c.MetricMarked(selection.Frequency) {
		t.Error("toggle twice should restore the original state")
	}
}

func TestToggleOutsideMetricPaneIsIgnored(t *testing.T) {
	c, m := newController(t, "a")
	out := c.Handle(ToggleSelect)
	if out.Render || out.Toggled {
		t.Errorf("outcome = %+v, want none", out)
	}
	if m.Count() != 0 {
		t.Error("matrix changed")
	}
}

func TestSelectIsNoop(t *testing.T) {
	for _, pane := range []int{0, 1, 2} {
		c, m := newController(t, "a", "b")
		for i := 0; i < pane; i++ {
			c.Handle(FocusNext)
		}
		before := c.Focus()
		out := c.Handle(Select)
		if out != (Outcome{}) {
			t.Errorf("pane %v: select outcome = %+v", before, out)
		}
		if c.Focus() != before || m.Count() != 0 || c.SymbolCursor() != 0 {
			t.Errorf("pane %v: select changed state", before)
		}
	}
}

func TestSessionEventsAreNotHandled(t *testing.T) {
	c, _ := newController(t, "a")
	for _, ev := range []Event{StartProbes, StopProbes, Search, ExportProfile, Quit} {
		if out := c.Handle(ev); out != (Outcome{}) {
			t.Errorf("%v: outcome = %+v", ev, out)
		}
	}
}

func TestLogPaneScrolls(t *testing.T) {
	c, _ := newController(t, "a", "b")
	c.Handle(FocusNext)
	c.Handle(FocusNext)

	if out := c.Handle(NavigateUp); out.ScrollLog != -1 || !out.Render {
		t.Errorf("up = %+v", out)
	}
	if out := c.Handle(NavigateDown); out.ScrollLog != 1 || !out.Render {
		t.Errorf("down = %+v", out)
	}
	if c.SymbolCursor() != 0 {
		t.Error("log scrolling moved the symbol cursor")
	}
}

func TestJumpTo(t *testing.T) {
	c, m := newController(t, "a", "b", "c")
	if err := m.Toggle("c", selection.Latency); err != nil {
		t.Fatal(err)
	}
	c.Handle(MoveRight)

	if !c.JumpTo(2) {
		t.Fatal("JumpTo(2) = false")
	}
	if c.Focus() != SymbolPane || c.CurrentSymbol() != "c" {
		t.Errorf("after jump: focus %v current %q", c.Focus(), c.CurrentSymbol())
	}
	if !c.MetricMarked(selection.Latency) {
		t.Error("metric marks not refreshed on jump")
	}
	if c.JumpTo(3) || c.JumpTo(-1) {
		t.Error("out of range jump accepted")
	}
}

func TestEmptyCatalog(t *testing.T) {
	c, _ := newController(t)
	if out := c.Handle(NavigateDown); out.Render {
		t.Error("navigate on empty catalog rendered")
	}
	c.Handle(MoveRight)
	if out := c.Handle(ToggleSelect); out.Toggled || out.Err != nil {
		t.Errorf("toggle on empty catalog = %+v", out)
	}
	if c.CurrentSymbol() != "" {
		t.Error("expected empty current symbol")
	}
}

func TestToggleErrorSurfaces(t *testing.T) {
	cat := symbols.NewCatalog([]string{"a"})
	// A matrix built for a smaller catalog makes the row unknown to it.
	m := selection.NewMatrix(symbols.NewCatalog(nil))
	c := NewController(cat, m)
	c.Handle(MoveRight)
	out := c.Handle(ToggleSelect)
	if !errors.Is(out.Err, selection.ErrUnknownSymbol) {
		t.Errorf("err = %v, want ErrUnknownSymbol", out.Err)
	}
	if out.Toggled {
		t.Error("failed toggle reported as applied")
	}
}

func TestEventStrings(t *testing.T) {
	if NavigateUp.String() != "navigate-up" || Quit.String() != "quit" {
		t.Error("unexpected event names")
	}
	if Event(99).String() != "event(99)" {
		t.Errorf("got %q", Event(99).String())
	}
	if LogPane.String() != "log" {
		t.Errorf("got %q", LogPane.String())
	}
}
