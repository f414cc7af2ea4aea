package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wiredtiger/wttrace/internal/focus"
	"github.com/wiredtiger/wttrace/internal/probe"
	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/session"
	"github.com/wiredtiger/wttrace/internal/telemetry"
	helpview "github.com/wiredtiger/wttrace/internal/views/help"
	"github.com/wiredtiger/wttrace/internal/views/panes"
	"github.com/wiredtiger/wttrace/internal/views/status"
	"github.com/wiredtiger/wttrace/internal/views/tracelog"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlaySearch
)

// Options configure the root model.
type Options struct {
	StatsInterval time.Duration
	// HelpStyle is the glamour style for the help overlay.
	HelpStyle string
}

type statsTickMsg time.Time

// Model is the root Bubble Tea model. It translates keys into session
// events and session state into panes.
type Model struct {
	sess *session.Session
	log  *tracelog.Log

	keys    KeyMap
	help    help.Model
	search  textinput.Model
	overlay Overlay
	width   int
	height  int

	names         []string
	statusBar     status.Model
	usage         map[selection.Metric]probe.Usage
	statsInterval time.Duration
	helpStyle     string
	now           func() time.Time
}

// New creates the root model.
func New(sess *session.Session, log *tracelog.Log, opts Options) Model {
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = 2 * time.Second
	}
	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "symbol name"
	search.CharLimit = 256

	return Model{
		sess:          sess,
		log:           log,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		search:        search,
		names:         sess.Catalog.Names(),
		statusBar:     status.New(opts.StatsInterval),
		statsInterval: opts.StatsInterval,
		helpStyle:     opts.HelpStyle,
		now:           time.Now,
	}
}

// Init binds the telemetry listener and starts the stats ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sess.Init(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.statsInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case telemetry.EventMsg:
		return m, m.sess.HandleDatagram(msg.Event)

	case telemetry.FailedMsg:
		m.sess.HandleListenerFailure(msg.Err)
		return m, nil

	case telemetry.ClosedMsg:
		return m, nil

	case probe.ExitedMsg:
		m.sess.HandleProbeExit(msg)
		return m, nil

	case probe.UsageMsg:
		m.usage = msg.Usage
		return m, nil

	case statsTickMsg:
		m.statusBar.Observe(m.sess.Aggregator.Datagrams(), time.Time(msg))
		if m.sess.Closed() {
			return m, nil
		}
		return m, tea.Batch(m.tick(), m.sess.Orchestrator.SampleCmd())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayHelp:
		switch {
		case key.Matches(msg, m.keys.Quit):
			_, cmd := m.sess.Dispatch(focus.Quit)
			return m, cmd
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help):
			m.overlay = OverlayNone
		}
		return m, nil

	case OverlaySearch:
		switch msg.Type {
		case tea.KeyEsc:
			m.closeSearch()
			return m, nil
		case tea.KeyEnter:
			m.sess.Search(m.search.Value())
			m.closeSearch()
			return m, nil
		case tea.KeyCtrlC:
			_, cmd := m.sess.Dispatch(focus.Quit)
			return m, cmd
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Help) {
		m.overlay = OverlayHelp
		return m, nil
	}

	ev, ok := m.keys.eventFor(msg)
	if !ok {
		return m, nil
	}
	if ev == focus.Search {
		m.overlay = OverlaySearch
		m.search.Reset()
		return m, m.search.Focus()
	}
	_, cmd := m.sess.Dispatch(ev)
	return m, cmd
}

func (m *Model) closeSearch() {
	m.overlay = OverlayNone
	m.search.Blur()
	m.search.Reset()
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	st := m.sess.State()
	m.statusBar.ProbeState = st.Probes
	m.statusBar.Probes = st.Running
	m.statusBar.ListenerState = st.Listener
	m.statusBar.ListenerAddr = m.sess.Ingester.Addr()
	m.statusBar.Selected = st.Selected
	top := m.statusBar.View()

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	var searchLine string
	if m.overlay == OverlaySearch {
		searchLine = m.search.View()
	}

	bodyHeight := m.height - lipgloss.Height(top) - lipgloss.Height(footer)
	if searchLine != "" {
		bodyHeight -= lipgloss.Height(searchLine)
	}
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	var body string
	if m.overlay == OverlayHelp {
		body = helpview.View(m.keys.All(), m.width, m.helpStyle)
	} else {
		body = m.renderBody(bodyHeight)
	}

	sections := []string{top, body}
	if searchLine != "" {
		sections = append(sections, searchLine)
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderBody(height int) string {
	ctrl := m.sess.Controller
	leftW := m.width / 2
	rightW := m.width - leftW

	left := panes.Symbols(m.names, ctrl, leftW, height, ctrl.Focus() == focus.SymbolPane)

	metrics := panes.Metrics(ctrl.CurrentSymbol(), ctrl, rightW, ctrl.Focus() == focus.MetricPane)
	probes := panes.Probes(m.sess.Orchestrator.Table(), m.usage, m.now(), rightW)
	logHeight := height - lipgloss.Height(metrics) - lipgloss.Height(probes)
	if logHeight < 4 {
		logHeight = 4
	}
	logView := m.log.View(rightW, logHeight, ctrl.Focus() == focus.LogPane)

	right := lipgloss.JoinVertical(lipgloss.Left, metrics, probes, logView)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// Overlay returns the active modal.
func (m Model) Overlay() Overlay {
	return m.overlay
}

var _ tea.Model = Model{}
