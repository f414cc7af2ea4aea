// Package probe supervises the external probe processes, one per metric
// with at least one selected symbol.
package probe

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wiredtiger/wttrace/internal/selection"
)

// State is the session-wide orchestrator state.
type State int

const (
	Idle State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProcessState is the lifecycle of a single table entry.
type ProcessState int

const (
	ProcessRunning ProcessState = iota
	ProcessTerminating
)

func (s ProcessState) String() string {
	if s == ProcessTerminating {
		return "terminating"
	}
	return "running"
}

// SpawnError records a probe that could not be started. It is contained:
// other metrics still get their probes.
type SpawnError struct {
	Metric selection.Metric
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s probe: %v", e.Metric, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ProbeProcess is one supervised probe.
type ProbeProcess struct {
	Metric    selection.Metric
	Symbols   []string
	PID       int
	StartedAt time.Time
	State     ProcessState

	handle Process
}

// ExitedMsg is delivered to the event loop when a probe process exits,
// whether on its own or after Terminate.
type ExitedMsg struct {
	Metric selection.Metric
	PID    int
	Err    error
}

// Selection is the read side of the selection matrix.
type Selection interface {
	SymbolsFor(selection.Metric) []string
}

// Options configure an Orchestrator.
type Options struct {
	Lib      string
	Host     string
	Port     int
	Commands map[selection.Metric][]string
	Logger   *slog.Logger
}

// StartResult reports what a Start call did.
type StartResult struct {
	// Ignored is set when Start was a no-op because probes were already
	// starting or running.
	Ignored bool
	Spawned []selection.Metric
	Failed  []*SpawnError
	// Cmd waits for the spawned processes; each exit arrives as ExitedMsg.
	Cmd tea.Cmd
}

// Orchestrator owns the process table. It is driven from the event loop
// and holds no locks.
type Orchestrator struct {
	spawner  Spawner
	lib      string
	host     string
	port     int
	commands map[selection.Metric][]string
	logger   *slog.Logger

	state State
	table map[selection.Metric]*ProbeProcess
	now   func() time.Time
}

// New creates an idle orchestrator with an empty table.
func New(spawner Spawner, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		spawner:  spawner,
		lib:      opts.Lib,
		host:     opts.Host,
		port:     opts.Port,
		commands: opts.Commands,
		logger:   logger,
		table:    make(map[selection.Metric]*ProbeProcess),
		now:      time.Now,
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	return o.state
}

// Len returns the number of tracked probes.
func (o *Orchestrator) Len() int {
	return len(o.table)
}

// Get returns a copy of the entry for metric.
func (o *Orchestrator) Get(m selection.Metric) (ProbeProcess, bool) {
	p, ok := o.table[m]
	if !ok {
		return ProbeProcess{}, false
	}
	return *p, true
}

// Table returns copies of all entries in metric order.
func (o *Orchestrator) Table() []ProbeProcess {
	out := make([]ProbeProcess, 0, len(o.table))
	for _, m := range selection.Metrics() {
		if p, ok := o.table[m]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Start spawns one probe per metric that has selected symbols. It is a
// no-op unless the orchestrator is idle, so repeated start requests never
// produce a second process set.
func (o *Orchestrator) Start(sel Selection) StartResult {
	if o.state != Idle {
		o.logger.Debug("start ignored", "state", o.state.String())
		return StartResult{Ignored: true}
	}
	o.state = Starting

	var res StartResult
	var cmds []tea.Cmd
	for _, m := range selection.Metrics() {
		targets := sel.SymbolsFor(m)
		if len(targets) == 0 {
			continue
		}
		spec := Spec{
			Metric:  m,
			Command: o.commands[m],
			Lib:     o.lib,
			Host:    o.host,
			Port:    o.port,
			Symbols: append([]string(nil), targets...),
		}
		proc, err := o.spawner.Spawn(spec)
		if err != nil {
			serr := &SpawnError{Metric: m, Err: err}
			res.Failed = append(res.Failed, serr)
			o.logger.Error("spawn failure", "metric", m.String(), "err", err)
			continue
		}
		entry := &ProbeProcess{
			Metric:    m,
			Symbols:   spec.Symbols,
			PID:       proc.Pid(),
			StartedAt: o.now(),
			State:     ProcessRunning,
			handle:    proc,
		}
		o.table[m] = entry
		res.Spawned = append(res.Spawned, m)
		cmds = append(cmds, waitCmd(m, proc))
		o.logger.Info("probe started", "metric", m.String(), "pid", entry.PID, "symbols", len(entry.Symbols))
	}

	if len(o.table) > 0 {
		o.state = Running
	} else {
		o.state = Idle
		if len(res.Failed) == 0 {
			o.logger.Info("nothing selected, no probes started")
		}
	}
	res.Cmd = tea.Batch(cmds...)
	return res
}

func waitCmd(m selection.Metric, p Process) tea.Cmd {
	return func() tea.Msg {
		err := p.Wait()
		return ExitedMsg{Metric: m, PID: p.Pid(), Err: err}
	}
}

// Reap removes the entry for an exited probe. Exits of processes no
// longer in the table, such as those terminated by StopAll, are ignored.
// It reports whether an entry was removed.
func (o *Orchestrator) Reap(msg ExitedMsg) bool {
	p, ok := o.table[msg.Metric]
	if !ok || p.PID != msg.PID {
		return false
	}
	delete(o.table, msg.Metric)
	if msg.Err != nil {
		o.logger.Warn("probe exited", "metric", msg.Metric.String(), "pid", msg.PID, "err", msg.Err)
	} else {
		o.logger.Info("probe exited", "metric", msg.Metric.String(), "pid", msg.PID)
	}
	if len(o.table) == 0 && o.state == Running {
		o.state = Idle
	}
	return true
}

// StopAll signals every tracked probe, clears the table and returns to
// Idle. Delivery is fire-and-forget; the exits still arrive as ExitedMsg
// and are ignored by Reap. Calling it with an empty table is a no-op. It
// returns the number of probes signalled.
func (o *Orchestrator) StopAll() int {
	if len(o.table) == 0 {
		o.state = Idle
		return 0
	}
	o.state = Stopping
	n := 0
	for _, m := range selection.Metrics() {
		p, ok := o.table[m]
		if !ok {
			continue
		}
		p.State = ProcessTerminating
		if err := p.handle.Terminate(); err != nil {
			o.logger.Warn("terminate probe", "metric", m.String(), "pid", p.PID, "err", err)
		}
		delete(o.table, m)
		n++
	}
	o.state = Idle
	o.logger.Info("probes stopped", "count", n)
	return n
}
