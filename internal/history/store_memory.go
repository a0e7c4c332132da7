package history

import (
	"context"
	"sync"
)

// DefaultPerCaller is how many records InMemoryStore keeps for each caller.
const DefaultPerCaller = 200

// InMemoryStore keeps the most recent records of each caller. Older records
// are discarded once a caller exceeds its bound.
type InMemoryStore struct {
	mu        sync.RWMutex
	perCaller int
	records   map[string][]Record
}

func NewInMemoryStore(perCaller int) *InMemoryStore {
	if perCaller <= 0 {
		perCaller = DefaultPerCaller
	}
	return &InMemoryStore{
		perCaller: perCaller,
		records:   make(map[string][]Record),
	}
}

func (s *InMemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := append(s.records[rec.CallerID], rec)
	if over := len(recs) - s.perCaller; over > 0 {
		recs = append([]Record(nil), recs[over:]...)
	}
	s.records[rec.CallerID] = recs
	return nil
}

func (s *InMemoryStore) ListByCaller(_ context.Context, callerID string, limit int) ([]Record, error) {
	limit = ClampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[callerID]
	n := min(limit, len(recs))
	out := make([]Record, 0, n)
	for i := len(recs) - 1; i >= len(recs)-n; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}
