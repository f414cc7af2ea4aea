package symbols

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

var initAlgo sync.Once

// Match is one search hit.
type Match struct {
	Index int
	Name  string
	Score int
}

// Search ranks catalog rows against query with fzf's matcher. Results are
// ordered by descending score, ties broken by catalog order. An empty
// query matches nothing.
func (c *Catalog) Search(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	initAlgo.Do(func() { algo.Init("default") })

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(100*1024, 2048)

	var matches []Match
	for i, name := range c.names {
		chars := util.ToChars([]byte(name))
		res, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if res.Start < 0 || res.Score <= 0 {
			continue
		}
		matches = append(matches, Match{Index: i, Name: name, Score: res.Score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Best returns the row of the highest ranked match for query.
func (c *Catalog) Best(query string) (int, bool) {
	if i, ok := c.index[strings.TrimSpace(query)]; ok {
		return i, true
	}
	matches := c.Search(query)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Index, true
}
