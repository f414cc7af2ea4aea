package app

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wiredtiger/wttrace/internal/focus"
	"github.com/wiredtiger/wttrace/internal/probe"
	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/session"
	"github.com/wiredtiger/wttrace/internal/symbols"
	"github.com/wiredtiger/wttrace/internal/telemetry"
	"github.com/wiredtiger/wttrace/internal/views/tracelog"
)

type stubProcess struct {
	pid  int
	done chan struct{}
}

func (p *stubProcess) Pid() int { return p.pid }
func (p *stubProcess) Terminate() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}
func (p *stubProcess) Wait() error { <-p.done; return nil }

type stubSpawner struct{ spawned []probe.Spec }

func (s *stubSpawner) Spawn(spec probe.Spec) (probe.Process, error) {
	s.spawned = append(s.spawned, spec)
	return &stubProcess{pid: 3000 + len(s.spawned), done: make(chan struct{})}, nil
}

func newTestModel(t *testing.T, names ...string) (Model, *stubSpawner) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sp := &stubSpawner{}
	orch := probe.New(sp, probe.Options{
		Lib: "/lib/libwiredtiger.so",
		Commands: map[selection.Metric][]string{
			selection.Latency:   {"lat"},
			selection.Frequency: {"freq"},
			selection.Stack:     {"stack"},
		},
		Logger: logger,
	})
	log := tracelog.New(50)
	sess := session.New(symbols.NewCatalog(names), orch, telemetry.NewIngester(0), log, session.Options{
		ListenHost: "127.0.0.1",
		ListenPort: 1,
		Logger:     logger,
	})
	t.Cleanup(sess.Shutdown)
	m := New(sess, log, Options{StatsInterval: time.Second, HelpStyle: "notty"})
	return m, sp
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestViewBeforeResize(t *testing.T) {
	m, _ := newTestModel(t, "a")
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() = %q", v)
	}
}

func TestKeysDriveSelection(t *testing.T) {
	m, _ := newTestModel(t, "wt_open", "wt_close")
	m, _ = press(t, m, runes("j"), runes("l"), runes("j"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.sess.Controller.Focus() != focus.MetricPane {
		t.Fatalf("focus = %v, want metrics", m.sess.Controller.Focus())
	}
	if !m.sess.Matrix.IsSelected("wt_close", selection.Frequency) {
		t.Error("enter on metric pane should toggle wt_close/frequency")
	}
	if m.sess.Matrix.Count() != 1 {
		t.Errorf("selected = %d, want 1", m.sess.Matrix.Count())
	}

	m, _ = press(t, m, runes("h"))
	if m.sess.Controller.Focus() != focus.SymbolPane {
		t.Errorf("h should return to symbols, focus = %v", m.sess.Controller.Focus())
	}
}

func TestFocusNextKeys(t *testing.T) {
	m, _ := newTestModel(t, "a")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.sess.Controller.Focus() != focus.MetricPane {
		t.Errorf("tab: focus = %v", m.sess.Controller.Focus())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.sess.Controller.Focus() != focus.LogPane {
		t.Errorf("ctrl+n: focus = %v", m.sess.Controller.Focus())
	}
}

func TestSpaceIsNoop(t *testing.T) {
	m, _ := newTestModel(t, "a", "b")
	m, _ = press(t, m, runes("l"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd != nil {
		t.Error("space should not produce a command")
	}
	if m.sess.Matrix.Count() != 0 || m.sess.Controller.Focus() != focus.MetricPane {
		t.Error("space changed state")
	}
}

func TestStartKeySpawnsSelectedProbes(t *testing.T) {
	m, sp := newTestModel(t, "a")
	m, _ = press(t, m, runes("l"), tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := press(t, m, runes("r"))
	if cmd == nil {
		t.Fatal("start should return the wait command")
	}
	if len(sp.spawned) != 1 || sp.spawned[0].Metric != selection.Latency {
		t.Fatalf("spawned = %+v", sp.spawned)
	}

	m, _ = press(t, m, runes("r"))
	if len(sp.spawned) != 1 {
		t.Error("second start should be ignored while running")
	}

	m, _ = press(t, m, runes("s"))
	if m.sess.Orchestrator.Len() != 0 {
		t.Error("stop should clear the table")
	}
}

func TestQuitKey(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlQ}, {Type: tea.KeyCtrlC}} {
		m, _ := newTestModel(t, "a")
		_, cmd := press(t, m, k)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command is not tea.Quit", k)
		}
		if !m.sess.Closed() {
			t.Errorf("%s: session not shut down", k)
		}
	}
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, "a")
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}, runes("?"))
	if m.Overlay() != OverlayHelp {
		t.Fatal("? should open help")
	}
	if v := m.View(); !strings.Contains(v, "start probes") {
		t.Error("help overlay should list bindings")
	}

	// Keys other than close and quit are swallowed.
	m, _ = press(t, m, runes("l"))
	if m.sess.Controller.Focus() != focus.SymbolPane {
		t.Error("help overlay leaked a key to the panes")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Overlay() != OverlayNone {
		t.Error("esc should close help")
	}
}

func TestSearchPrompt(t *testing.T) {
	m, _ := newTestModel(t, "__wt_open", "__wt_close", "__wt_txn_commit")
	m, _ = press(t, m, runes("/"))
	if m.Overlay() != OverlaySearch {
		t.Fatal("/ should open search")
	}
	m, _ = press(t, m, runes("t"), runes("x"), runes("n"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Overlay() != OverlayNone {
		t.Error("enter should close search")
	}
	if got := m.sess.Controller.CurrentSymbol(); got != "__wt_txn_commit" {
		t.Errorf("current = %q, want __wt_txn_commit", got)
	}

	m, _ = press(t, m, runes("/"), runes("q"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Overlay() != OverlayNone || m.sess.Closed() {
		t.Error("q inside search should be text, esc should close")
	}
}

func TestDatagramMessageAppendsToLog(t *testing.T) {
	m, _ := newTestModel(t, "a")
	before := m.log.Len()
	m, _ = press(t, m, telemetry.EventMsg{Event: telemetry.Event{Seq: 1, Payload: []byte("raw probe line")}})
	entries := m.log.Entries()
	if len(entries) != before+1 {
		t.Fatalf("entries = %d, want %d", len(entries), before+1)
	}
	if entries[len(entries)-1].Message != "raw probe line" {
		t.Errorf("message = %q", entries[len(entries)-1].Message)
	}
}

func TestProbeExitMessage(t *testing.T) {
	m, sp := newTestModel(t, "a")
	m, _ = press(t, m, runes("l"), tea.KeyMsg{Type: tea.KeyEnter}, runes("r"))
	pid := 3000 + len(sp.spawned)
	m, _ = press(t, m, probe.ExitedMsg{Metric: selection.Latency, PID: pid})
	if m.sess.Orchestrator.State() != probe.Idle {
		t.Errorf("state = %v, want idle", m.sess.Orchestrator.State())
	}
}

func TestViewRendersPanes(t *testing.T) {
	m, _ := newTestModel(t, "wt_open", "wt_close")
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	v := m.View()
	for _, want := range []string{"Symbols (2)", "Metrics", "Probes", "Trace Output", "wt_open", "latency"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStatsTickSchedulesNext(t *testing.T) {
	m, _ := newTestModel(t, "a")
	_, cmd := press(t, m, statsTickMsg(time.Now()))
	if cmd == nil {
		t.Error("stats tick should re-arm")
	}
}
