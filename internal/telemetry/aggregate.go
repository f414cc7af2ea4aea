package telemetry

import (
	"sort"
)

// FunctionStats is everything received so far for one traced function.
type FunctionStats struct {
	Name string
	// Calls is the latest running total from a frequency report.
	Calls uint64
	// LastInterval is the growth of Calls since the previous report. A total
	// that went down means the probe restarted; the new total is the interval.
	LastInterval uint64
	// Latencies is the most recent latency histogram.
	Latencies []Bucket
}

// Snapshot is a point-in-time copy of an Aggregator.
type Snapshot struct {
	Datagrams    uint64
	Reports      uint64
	DecodeErrors uint64
	Functions    []FunctionStats
}

// Aggregator folds decoded reports into per-function totals. It is owned
// by the event loop.
type Aggregator struct {
	datagrams    uint64
	reports      uint64
	decodeErrors uint64
	funcs        map[string]*FunctionStats
}

func NewAggregator() *Aggregator {
	return &Aggregator{funcs: make(map[string]*FunctionStats)}
}

// Observe decodes a datagram and records what it contains. It returns the
// decode error, if any, after recording whatever decoded cleanly.
func (a *Aggregator) Observe(payload []byte) error {
	a.datagrams++
	reports, err := Decode(payload)
	for _, r := range reports {
		a.Add(r)
	}
	if err != nil {
		a.decodeErrors++
	}
	return err
}

// Add records one report.
func (a *Aggregator) Add(r Report) {
	a.reports++
	for fn, n := range r.Frequency {
		s := a.function(fn)
		if n >= s.Calls {
			s.LastInterval = n - s.Calls
		} else {
			s.LastInterval = n
		}
		s.Calls = n
	}
	if r.Function != "" && len(r.Latencies) > 0 {
		a.function(r.Function).Latencies = SortedBuckets(r.Latencies)
	}
}

func (a *Aggregator) function(name string) *FunctionStats {
	s, ok := a.funcs[name]
	if !ok {
		s = &FunctionStats{Name: name}
		a.funcs[name] = s
	}
	return s
}

// Datagrams returns how many payloads have been observed.
func (a *Aggregator) Datagrams() uint64 {
	return a.datagrams
}

// Snapshot copies the current state, functions sorted by name.
func (a *Aggregator) Snapshot() Snapshot {
	snap := Snapshot{
		Datagrams:    a.datagrams,
		Reports:      a.reports,
		DecodeErrors: a.decodeErrors,
		Functions:    make([]FunctionStats, 0, len(a.funcs)),
	}
	for _, s := range a.funcs {
		c := *s
		c.Latencies = append([]Bucket(nil), s.Latencies...)
		snap.Functions = append(snap.Functions, c)
	}
	sort.Slice(snap.Functions, func(i, j int) bool {
		return snap.Functions[i].Name < snap.Functions[j].Name
	})
	return snap
}
