package storage

import (
	"context"
	"sync"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// MemoryStore keeps everything in process. It backs tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	deadlinks []domain.DeadlinkRecord
	history   map[string]domain.HistoryRecord
	order     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{history: make(map[string]domain.HistoryRecord)}
}

func (s *MemoryStore) AppendDeadlink(_ context.Context, record domain.DeadlinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlinks = append(s.deadlinks, record)
	return nil
}

func (s *MemoryStore) UpsertHistory(_ context.Context, record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history[record.URL]; !ok {
		s.order = append(s.order, record.URL)
	}
	s.history[record.URL] = record
	return nil
}

func (s *MemoryStore) LoadHistory(_ context.Context) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.HistoryRecord, 0, len(s.order))
	for _, u := range s.order {
		records = append(records, s.history[u])
	}
	return records, nil
}

func (s *MemoryStore) LoadExistingResults(_ context.Context) ([]domain.DeadlinkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DeadlinkRecord(nil), s.deadlinks...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
