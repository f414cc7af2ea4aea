package selection

import "fmt"

// Metric is a kind of measurement a probe collects. The set is closed and
// its order is the metric pane's row order.
type Metric int

const (
	Latency Metric = iota
	Frequency
	Stack

	metricCount = iota
)

var metricNames = [metricCount]string{
	Latency:   "latency",
	Frequency: "frequency",
	Stack:     "stack",
}

// Metrics returns every metric in pane order.
func Metrics() []Metric {
	return []Metric{Latency, Frequency, Stack}
}

// Count is the number of metrics.
func Count() int {
	return metricCount
}

func (m Metric) String() string {
	if m < 0 || int(m) >= metricCount {
		return fmt.Sprintf("metric(%d)", int(m))
	}
	return metricNames[m]
}

// Valid reports whether m is one of the defined metrics.
func (m Metric) Valid() bool {
	return m >= 0 && int(m) < metricCount
}

// ParseMetric maps a metric name back to its value.
func ParseMetric(name string) (Metric, error) {
	for i, n := range metricNames {
		if n == name {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}
