package focus

import (
	"github.com/wiredtiger/wttrace/internal/selection"
	"github.com/wiredtiger/wttrace/internal/symbols"
)

// Outcome is what handling one event did.
type Outcome struct {
	// Render asks for exactly one redraw.
	Render bool
	// Toggled is set when a matrix cell changed.
	Toggled bool
	// ScrollLog is the number of lines the log pane should scroll; negative
	// scrolls back.
	ScrollLog int
	Err       error
}

// Controller tracks the focused pane and the cursor of each list, and
// keeps the per-row markers in step with the matrix.
type Controller struct {
	catalog *symbols.Catalog
	matrix  *selection.Matrix

	focus        Pane
	symbolCursor int
	metricCursor selection.Metric

	// symbolMarks[i] is HasAnySelection for catalog row i.
	symbolMarks []bool
	// metricMarks[m] is IsSelected(current symbol, m).
	metricMarks []bool
}

// NewController starts with the symbol pane focused and both cursors on the
// first row.
func NewController(catalog *symbols.Catalog, matrix *selection.Matrix) *Controller {
	c := &Controller{
		catalog:     catalog,
		matrix:      matrix,
		focus:       SymbolPane,
		symbolMarks: make([]bool, catalog.Len()),
		metricMarks: make([]bool, selection.Count()),
	}
	for i := range c.symbolMarks {
		c.symbolMarks[i] = matrix.HasAnySelectionIndex(i)
	}
	c.refreshMetricMarks()
	return c
}

// Focus returns the focused pane.
func (c *Controller) Focus() Pane {
	return c.focus
}

func (c *Controller) SymbolCursor() int {
	return c.symbolCursor
}

func (c *Controller) MetricCursor() selection.Metric {
	return c.metricCursor
}

// SymbolMarked reports whether catalog row has any metric selected.
func (c *Controller) SymbolMarked(row int) bool {
	return row >= 0 && row < len(c.symbolMarks) && c.symbolMarks[row]
}

// MetricMarked reports whether the highlighted symbol is selected for m.
func (c *Controller) MetricMarked(m selection.Metric) bool {
	return m.Valid() && c.metricMarks[m]
}

// CurrentSymbol returns the highlighted symbol, or "" for an empty catalog.
func (c *Controller) CurrentSymbol() string {
	if c.catalog.Len() == 0 {
		return ""
	}
	return c.catalog.Name(c.symbolCursor)
}

// Handle applies one pane event. Session-level events (start, stop, quit,
// search, export) are not the controller's and return a zero Outcome.
func (c *Controller) Handle(ev Event) Outcome {
	switch ev {
	case FocusNext:
		c.focus = (c.focus + 1) % paneCount
		return Outcome{Render: true}
	case NavigateUp:
		return c.navigate(-1)
	case NavigateDown:
		return c.navigate(1)
	case MoveRight:
		if c.focus != SymbolPane {
			return Outcome{}
		}
		c.focus = MetricPane
		return Outcome{Render: true}
	case MoveLeft:
		if c.focus != MetricPane {
			return Outcome{}
		}
		c.focus = SymbolPane
		return Outcome{Render: true}
	case ToggleSelect:
		if c.focus != MetricPane {
			return Outcome{}
		}
		return c.toggle()
	default:
		return Outcome{}
	}
}

func (c *Controller) navigate(delta int) Outcome {
	switch c.focus {
	case SymbolPane:
		if c.catalog.Len() == 0 {
			return Outcome{}
		}
		c.symbolCursor = clamp(c.symbolCursor+delta, c.catalog.Len())
		c.refreshMetricMarks()
	case MetricPane:
		c.metricCursor = selection.Metric(clamp(int(c.metricCursor)+delta, selection.Count()))
	case LogPane:
		return Outcome{Render: true, ScrollLog: delta}
	}
	return Outcome{Render: true}
}

func (c *Controller) toggle() Outcome {
	if c.catalog.Len() == 0 {
		return Outcome{}
	}
	row := c.symbolCursor
	if err := c.matrix.ToggleIndex(row, c.metricCursor); err != nil {
		return Outcome{Err: err}
	}
	c.metricMarks[c.metricCursor] = c.matrix.IsSelectedIndex(row, c.metricCursor)
	c.symbolMarks[row] = c.matrix.HasAnySelectionIndex(row)
	return Outcome{Render: true, Toggled: true}
}

// JumpTo moves the symbol cursor to a catalog row and focuses the symbol
// pane. It reports false for an out-of-range row.
func (c *Controller) JumpTo(row int) bool {
	if row < 0 || row >= c.catalog.Len() {
		return false
	}
	c.symbolCursor = row
	c.focus = SymbolPane
	c.refreshMetricMarks()
	return true
}

func (c *Controller) refreshMetricMarks() {
	for _, m := range selection.Metrics() {
		c.metricMarks[m] = c.matrix.IsSelectedIndex(c.symbolCursor, m)
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
