// Package research implements the iterative context-discovery loop:
// seed keyword generation, search fan-out, oracle analysis, and the
// convergence policy that decides when enough context has been found.
package research

import (
	"github.com/quarrylabs/quarry/analyzer"
	"github.com/quarrylabs/quarry/model"
)

// Iteration records one completed round of the loop.
type Iteration struct {
	Index    int
	Keywords []string
	Results  model.SearchResults
	Analysis analyzer.Result
}

// Context accumulates state across iterations of a single research run.
// It is owned by exactly one in-flight Research call and needs no locking.
type Context struct {
	Query    string
	FileHint string

	iterations []Iteration
	discovered []string
	seen       map[string]struct{}
}

// NewContext creates an empty research context for a query.
func NewContext(query, fileHint string) *Context {
	return &Context{
		Query:    query,
		FileHint: fileHint,
		seen:     make(map[string]struct{}),
	}
}

// AddKeywords registers keywords into the discovered set, preserving first
// insertion order and dropping duplicates.
func (c *Context) AddKeywords(keywords []string) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, dup := c.seen[kw]; dup {
			continue
		}
		c.seen[kw] = struct{}{}
		c.discovered = append(c.discovered, kw)
	}
}

// Seen reports whether a keyword was already discovered.
func (c *Context) Seen(keyword string) bool {
	_, ok := c.seen[keyword]
	return ok
}

// Discovered returns all discovered keywords in first-seen order.
func (c *Context) Discovered() []string {
	return c.discovered
}

// AddIteration appends a completed iteration.
func (c *Context) AddIteration(it Iteration) {
	c.iterations = append(c.iterations, it)
}

// Iterations returns completed iterations in order.
func (c *Context) Iterations() []Iteration {
	return c.iterations
}

// TotalResults sums match counts across all completed iterations.
func (c *Context) TotalResults() int {
	total := 0
	for _, it := range c.iterations {
		total += it.Results.Total()
	}
	return total
}

// LastYield returns the match count of the most recent iteration, or 0 when
// no iteration has completed.
func (c *Context) LastYield() int {
	if len(c.iterations) == 0 {
		return 0
	}
	return c.iterations[len(c.iterations)-1].Results.Total()
}

// Summaries returns the non-empty analysis summaries in iteration order,
// used to remind the oracle of previous findings.
func (c *Context) Summaries() []string {
	var out []string
	for _, it := range c.iterations {
		if it.Analysis.Summary != "" {
			out = append(out, it.Analysis.Summary)
		}
	}
	return out
}
