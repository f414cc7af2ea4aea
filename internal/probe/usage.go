package probe

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/wiredtiger/wttrace/internal/selection"
)

// Usage is a resource sample for one probe.
type Usage struct {
	PID        int
	Alive      bool
	CPUPercent float64
	RSS        uint64
}

// UsageMsg carries a sample of every tracked probe.
type UsageMsg struct {
	Usage map[selection.Metric]Usage
}

// Sample reads CPU and memory for pid. A process that has gone away reports
// Alive false and zero usage.
func Sample(pid int) Usage {
	u := Usage{PID: pid}
	alive, err := process.PidExists(int32(pid))
	if err != nil || !alive {
		return u
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return u
	}
	u.Alive = true
	if cpu, err := p.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		u.RSS = mem.RSS
	}
	return u
}

// SampleCmd captures the current PIDs and samples them off the event loop.
// It returns nil when nothing is running.
func (o *Orchestrator) SampleCmd() tea.Cmd {
	if len(o.table) == 0 {
		return nil
	}
	pids := make(map[selection.Metric]int, len(o.table))
	for m, p := range o.table {
		pids[m] = p.PID
	}
	return func() tea.Msg {
		out := make(map[selection.Metric]Usage, len(pids))
		for m, pid := range pids {
			out[m] = Sample(pid)
		}
		return UsageMsg{Usage: out}
	}
}
