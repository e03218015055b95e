// Package recentid holds the process-wide, cross-session "most recently
// seen post" cell described in spec.md §3/§9. It is written only by the
// POP3 listener on a session's first successful RETR, and read by the POP3
// login pipeline when fetching the next session's timeline window.
package recentid

import "sync/atomic"

// Cell is a last-writer-wins atomic string. Losing a concurrent write only
// enlarges the next timeline fetch window; it is never incorrect to lose
// one, per the REDESIGN FLAGS' open question on this point.
type Cell struct {
	v atomic.Value // string
}

// New creates an empty Cell.
func New() *Cell {
	c := &Cell{}
	c.v.Store("")
	return c
}

// Get returns the current value, or "" if never set.
func (c *Cell) Get() string {
	v, _ := c.v.Load().(string)
	return v
}

// Set stores id as the new most-recently-seen post id. Empty ids are
// ignored so a session that never RETRs anything cannot clear a prior
// session's progress.
func (c *Cell) Set(id string) {
	if id == "" {
		return
	}
	c.v.Store(id)
}
