// Package selection records which (symbol, metric) pairs are chosen for
// tracing. The matrix is the single source of truth for what the probe
// orchestrator spawns.
package selection

import (
	"errors"
	"fmt"

	"github.com/wiredtiger/wttrace/internal/symbols"
)

// ErrUnknownSymbol is returned when a toggle names a symbol the catalog
// never resolved.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Matrix is a fixed-size table indexed by catalog row and metric. Every
// catalog symbol has a cell for every metric, all false at construction.
// It is not safe for concurrent use; the session mutates it from the
// event loop only.
type Matrix struct {
	catalog *symbols.Catalog
	cells   [][metricCount]bool
}

// NewMatrix creates an all-false matrix sized to the catalog.
func NewMatrix(catalog *symbols.Catalog) *Matrix {
	return &Matrix{
		catalog: catalog,
		cells:   make([][metricCount]bool, catalog.Len()),
	}
}

// Toggle flips the (symbol, metric) cell.
func (m *Matrix) Toggle(symbol string, metric Metric) error {
	row, ok := m.catalog.Index(symbol)
	if !ok {
		return fmt.Errorf("toggle %s/%s: %w", symbol, metric, ErrUnknownSymbol)
	}
	return m.ToggleIndex(row, metric)
}

// ToggleIndex flips the cell at a catalog row.
func (m *Matrix) ToggleIndex(row int, metric Metric) error {
	if row < 0 || row >= len(m.cells) {
		return fmt.Errorf("toggle row %d: %w", row, ErrUnknownSymbol)
	}
	if !metric.Valid() {
		return fmt.Errorf("toggle row %d: invalid %s", row, metric)
	}
	m.cells[row][metric] = !m.cells[row][metric]
	return nil
}

// IsSelected reports the cell value. Unknown symbols read as false.
func (m *Matrix) IsSelected(symbol string, metric Metric) bool {
	row, ok := m.catalog.Index(symbol)
	if !ok {
		return false
	}
	return m.IsSelectedIndex(row, metric)
}

// IsSelectedIndex is IsSelected by catalog row.
func (m *Matrix) IsSelectedIndex(row int, metric Metric) bool {
	if row < 0 || row >= len(m.cells) || !metric.Valid() {
		return false
	}
	return m.cells[row][metric]
}

// SymbolsFor returns the selected symbols for metric in catalog order. The
// result is a fresh slice; an empty result means no probe is needed.
func (m *Matrix) SymbolsFor(metric Metric) []string {
	if !metric.Valid() {
		return nil
	}
	var out []string
	for row := range m.cells {
		if m.cells[row][metric] {
			out = append(out, m.catalog.Name(row))
		}
	}
	return out
}

// HasAnySelection reports whether symbol is selected for at least one metric.
func (m *Matrix) HasAnySelection(symbol string) bool {
	row, ok := m.catalog.Index(symbol)
	if !ok {
		return false
	}
	return m.HasAnySelectionIndex(row)
}

// HasAnySelectionIndex is HasAnySelection by catalog row.
func (m *Matrix) HasAnySelectionIndex(row int) bool {
	if row < 0 || row >= len(m.cells) {
		return false
	}
	for _, v := range m.cells[row] {
		if v {
			return true
		}
	}
	return false
}

// Count returns the number of selected cells.
func (m *Matrix) Count() int {
	n := 0
	for row := range m.cells {
		for _, v := range m.cells[row] {
			if v {
				n++
			}
		}
	}
	return n
}
