// Package progress renders crawl counters as a single status line that is
// rewritten in place.
package progress

import (
	"fmt"
	"io"
	"sync"
)

// Status is a snapshot of the crawl counters.
type Status struct {
	PagesVisited  int
	DeadlinkCount int
	MaxDepth      int
	Activity      string
}

// Line writes each status over the previous one using a carriage return.
type Line struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

func (l *Line) Report(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "\rScanned: %d pages, Found: %d deadlinks, Max Depth: %d, %s",
		s.PagesVisited, s.DeadlinkCount, s.MaxDepth, s.Activity)
}

// Done ends the status line.
func (l *Line) Done() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w)
}
