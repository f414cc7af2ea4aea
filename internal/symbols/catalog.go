// Package symbols holds the ordered list of instrumentable function names
// resolved from the target library.
package symbols

import "strings"

// Catalog is the immutable, ordered set of symbol names. Duplicate names
// reported by the resolver collapse onto their first occurrence so that a
// name always maps to exactly one row.
type Catalog struct {
	names      []string
	index      map[string]int
	duplicates int
}

// NewCatalog builds a catalog from resolver output. Blank names are skipped.
func NewCatalog(names []string) *Catalog {
	c := &Catalog{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := c.index[n]; ok {
			c.duplicates++
			continue
		}
		c.index[n] = len(c.names)
		c.names = append(c.names, n)
	}
	return c
}

// Len returns the number of distinct symbols.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Name returns the symbol at row i.
func (c *Catalog) Name(i int) string {
	return c.names[i]
}

// Names returns a copy of all symbols in resolver order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Index returns the row of name, or false when the catalog does not know it.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Duplicates reports how many resolver entries were folded into earlier rows.
func (c *Catalog) Duplicates() int {
	return c.duplicates
}
