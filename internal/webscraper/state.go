package webscraper

import (
	"sort"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/yingtu35/site-deadlink-crawler/internal/progress"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// FrontierEntry is a discovered page waiting to be fetched.
type FrontierEntry struct {
	URL   string
	Depth int // distance from the seed, which is 0
}

// crawlState is owned by a single StartHunting call.
type crawlState struct {
	id       string
	visited  mapset.Set[string] // thread-safe; Add doubles as test-and-set
	frontier []FrontierEntry    // only touched between batches

	deadlinkMu sync.Mutex
	deadlinks  []domain.DeadlinkRecord

	maxDepth atomic.Int64
	fetched  atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func newCrawlState(seed string) *crawlState {
	return &crawlState{
		id:       uuid.NewString(),
		visited:  mapset.NewSet[string](),
		frontier: []FrontierEntry{{URL: seed, Depth: 0}},
	}
}

// visit marks u as dispatched and reports whether it was new.
func (s *crawlState) visit(u string) bool {
	return s.visited.Add(u)
}

func (s *crawlState) isVisited(u string) bool {
	return s.visited.Contains(u)
}

func (s *crawlState) visitedCount() int {
	return s.visited.Cardinality()
}

func (s *crawlState) observeDepth(depth int) {
	d := int64(depth)
	for {
		cur := s.maxDepth.Load()
		if d <= cur || s.maxDepth.CompareAndSwap(cur, d) {
			return
		}
	}
}

func (s *crawlState) addDeadlink(record domain.DeadlinkRecord) {
	s.deadlinkMu.Lock()
	defer s.deadlinkMu.Unlock()
	s.deadlinks = append(s.deadlinks, record)
}

func (s *crawlState) deadlinkRecords() []domain.DeadlinkRecord {
	s.deadlinkMu.Lock()
	defer s.deadlinkMu.Unlock()
	return append([]domain.DeadlinkRecord(nil), s.deadlinks...)
}

func (s *crawlState) deadlinkCount() int {
	s.deadlinkMu.Lock()
	defer s.deadlinkMu.Unlock()
	return len(s.deadlinks)
}

// nextBatch removes up to n entries from the front of the frontier.
func (s *crawlState) nextBatch(n int) []FrontierEntry {
	if n > len(s.frontier) {
		n = len(s.frontier)
	}
	batch := s.frontier[:n:n]
	s.frontier = s.frontier[n:]
	return batch
}

func (s *crawlState) enqueue(entries []FrontierEntry) {
	s.frontier = append(s.frontier, entries...)
}

func (s *crawlState) pending() int {
	return len(s.frontier)
}

func (s *crawlState) status(activity string) progress.Status {
	return progress.Status{
		PagesVisited:  s.visitedCount(),
		DeadlinkCount: s.deadlinkCount(),
		MaxDepth:      int(s.maxDepth.Load()),
		Activity:      activity,
	}
}

// Summary describes a finished crawl.
type Summary struct {
	SessionID    string
	Visited      []string // sorted
	Fetched      int
	Skipped      int
	Failed       int
	Deadlinks    int
	MaxDepth     int
	FrontierLeft int
}

func (s *crawlState) summary() Summary {
	visited := s.visited.ToSlice()
	sort.Strings(visited)
	return Summary{
		SessionID:    s.id,
		Visited:      visited,
		Fetched:      int(s.fetched.Load()),
		Skipped:      int(s.skipped.Load()),
		Failed:       int(s.failed.Load()),
		Deadlinks:    s.deadlinkCount(),
		MaxDepth:     int(s.maxDepth.Load()),
		FrontierLeft: len(s.frontier),
	}
}
