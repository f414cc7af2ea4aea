// Package session composes the selection matrix, focus controller, probe
// orchestrator and telemetry ingester into one trace session, driven by a
// single event loop.
package session

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wiredtiger/wttrace/internal/export"
	"github.com/wiredtiger/wttrace/internal/focus"
	"github.com/wiredtiger/wttrace/internal/logging"
	"github.com/wiredtiger/wttrace/internal/probe"
	"github.com/wiredtiger/wttrace/internal/relay"
	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/symbols"
	"github.com/wiredtiger/wttrace/internal/telemetry"
)

// Log is where datagrams and session messages are shown.
type Log interface {
	logging.Sink
	Scroll(n int)
}

// Publisher mirrors the session to remote watchers.
type Publisher interface {
	PublishTrace(relay.TracePayload)
	PublishState(relay.StatePayload)
}

// Options configure a Session.
type Options struct {
	Lib        string
	ListenHost string
	ListenPort int
	// ExportDir receives profile exports; empty means the working
	// directory.
	ExportDir string
	Logger    *slog.Logger
	Publisher Publisher
}

// Session owns every piece of mutable state. All methods run on the event
// loop.
type Session struct {
	Catalog      *symbols.Catalog
	Matrix       *selection.Matrix
	Controller   *focus.Controller
	Orchestrator *probe.Orchestrator
	Ingester     *telemetry.Ingester
	Aggregator   *telemetry.Aggregator

	log       Log
	publisher Publisher
	logger    *slog.Logger
	opts      Options

	listenerReported bool
	closed           bool
	now              func() time.Time
}

// New builds a session over a resolved catalog. The matrix starts empty and
// the ingester is not bound until Init.
func New(catalog *symbols.Catalog, orch *probe.Orchestrator, ing *telemetry.Ingester, log Log, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	matrix := selection.NewMatrix(catalog)
	return &Session{
		Catalog:      catalog,
		Matrix:       matrix,
		Controller:   focus.NewController(catalog, matrix),
		Orchestrator: orch,
		Ingester:     ing,
		Aggregator:   telemetry.NewAggregator(),
		log:          log,
		publisher:    opts.Publisher,
		logger:       logger,
		opts:         opts,
		now:          time.Now,
	}
}

// Init binds the telemetry listener and returns the first read. A bind
// failure is reported and the session carries on without telemetry.
func (s *Session) Init() tea.Cmd {
	if err := s.Ingester.Listen(s.opts.ListenHost, s.opts.ListenPort); err != nil {
		s.HandleListenerFailure(err)
		return nil
	}
	s.logger.Info("listening for telemetry", "addr", s.Ingester.Addr())
	s.publishState()
	return s.Ingester.ReadCmd()
}

// Dispatch applies one input event and returns what it did and any command
// to run.
func (s *Session) Dispatch(ev focus.Event) (focus.Outcome, tea.Cmd) {
	switch ev {
	case focus.StartProbes:
		return s.startProbes()
	case focus.StopProbes:
		n := s.Orchestrator.StopAll()
		s.publishState()
		return focus.Outcome{Render: n > 0}, nil
	case focus.ExportProfile:
		s.exportProfile()
		return focus.Outcome{Render: true}, nil
	case focus.Quit:
		s.Shutdown()
		return focus.Outcome{}, tea.Quit
	case focus.Search:
		// The prompt belongs to the rendering surface; see Search.
		return focus.Outcome{}, nil
	}

	out := s.Controller.Handle(ev)
	if out.Err != nil {
		s.logger.Error("toggle failed", "symbol", s.Controller.CurrentSymbol(),
			"metric", s.Controller.MetricCursor().String(), "err", out.Err)
	}
	if out.ScrollLog != 0 {
		s.log.Scroll(out.ScrollLog)
	}
	if out.Toggled {
		s.publishState()
	}
	return out, nil
}

func (s *Session) startProbes() (focus.Outcome, tea.Cmd) {
	res := s.Orchestrator.Start(s.Matrix)
	if res.Ignored {
		s.logger.Info("probes already running", "state", s.Orchestrator.State().String())
		return focus.Outcome{}, nil
	}
	s.publishState()
	return focus.Outcome{Render: true}, res.Cmd
}

func (s *Session) exportProfile() {
	path, err := export.SaveFile(s.opts.ExportDir, s.Aggregator.Snapshot(), s.opts.Lib, s.now())
	if err != nil {
		s.logger.Warn("profile export failed", "err", err)
		return
	}
	s.logger.Info("profile written", "path", path)
}

// Search moves the symbol cursor to the best match for query.
func (s *Session) Search(query string) bool {
	row, ok := s.Catalog.Best(query)
	if !ok {
		s.logger.Info("no symbol matches", "query", query)
		return false
	}
	return s.Controller.JumpTo(row)
}

// HandleDatagram appends one datagram to the log as exactly one entry and
// re-arms the read.
func (s *Session) HandleDatagram(ev telemetry.Event) tea.Cmd {
	text := string(ev.Payload)
	s.log.Add(logging.KindTrace, text)
	// Decode errors are counted by the aggregator; the raw text is already
	// in the log.
	_ = s.Aggregator.Observe(ev.Payload)
	if s.publisher != nil {
		s.publisher.PublishTrace(relay.TracePayload{Seq: ev.Seq, From: ev.From, At: ev.At, Text: text})
	}
	return s.Ingester.ReadCmd()
}

// HandleListenerFailure disables telemetry for the rest of the session.
// Only the first failure is logged.
func (s *Session) HandleListenerFailure(err error) {
	if cerr := s.Ingester.Fail(err); cerr != nil {
		s.logger.Warn("closing listener", "err", cerr)
	}
	if s.listenerReported {
		return
	}
	s.listenerReported = true
	s.logger.Error("listener failure", "addr", s.Ingester.Addr(), "err", err)
	s.publishState()
}

// HandleProbeExit reaps a probe that exited. It reports whether the table
// changed.
func (s *Session) HandleProbeExit(msg probe.ExitedMsg) bool {
	if !s.Orchestrator.Reap(msg) {
		return false
	}
	s.publishState()
	return true
}

// Shutdown terminates every probe and closes the listener. It is safe to
// call more than once.
func (s *Session) Shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	s.Orchestrator.StopAll()
	if err := s.Ingester.Close(); err != nil {
		s.logger.Warn("closing listener", "err", err)
	}
}

// Closed reports whether Shutdown has run.
func (s *Session) Closed() bool {
	return s.closed
}

// State summarises the session for the status bar and relay.
func (s *Session) State() relay.StatePayload {
	return relay.StatePayload{
		Probes:   s.Orchestrator.State().String(),
		Running:  s.Orchestrator.Len(),
		Listener: s.Ingester.State().String(),
		Selected: s.Matrix.Count(),
	}
}

func (s *Session) publishState() {
	if s.publisher != nil {
		s.publisher.PublishState(s.State())
	}
}

// Describe is a one-line summary for the final log record.
func (s *Session) Describe() string {
	snap := s.Aggregator.Snapshot()
	return fmt.Sprintf("%d symbols, %d selected, %d datagrams, %d functions reported",
		s.Catalog.Len(), s.Matrix.Count(), snap.Datagrams, len(snap.Functions))
}
