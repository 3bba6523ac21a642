package webscraper

import (
	"sync"
	"time"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// RescanGate decides whether a page was fetched recently enough to skip.
type RescanGate struct {
	window time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	history map[string]time.Time
}

func NewRescanGate(window time.Duration, records []domain.HistoryRecord, now func() time.Time) *RescanGate {
	if now == nil {
		now = time.Now
	}
	g := &RescanGate{
		window:  window,
		now:     now,
		history: make(map[string]time.Time, len(records)),
	}
	for _, r := range records {
		g.Record(r.URL, r.LastScanned)
	}
	return g
}

// ShouldSkip reports whether u was scanned less than the window ago. Forced
// URLs are never skipped.
func (g *RescanGate) ShouldSkip(u string, force bool) bool {
	if force {
		return false
	}
	g.mu.RLock()
	last, ok := g.history[key(u)]
	g.mu.RUnlock()
	return ok && g.now().Sub(last) < g.window
}

// Record stores the last scan time of u, keeping the most recent one.
func (g *RescanGate) Record(u string, scanned time.Time) {
	k := key(u)
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.history[k]; !ok || scanned.After(last) {
		g.history[k] = scanned
	}
}

func key(u string) string {
	if c, err := domain.CanonicalURL(u); err == nil {
		return c
	}
	return u
}
