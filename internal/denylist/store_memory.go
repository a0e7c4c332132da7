package denylist

import (
	"context"
	"sync"
)

// SeedEntries is the static table used when no database is configured.
var SeedEntries = []Entry{
	{RFC: "EFO010101AB1", Status: StatusEFO, Description: "contribuyente en listado definitivo de operaciones simuladas (art. 69-B)"},
	{RFC: "EFOS800101AB2", Status: StatusEFO, Description: "contribuyente en listado presunto de operaciones simuladas (art. 69-B)"},
	{RFC: "EDO020202CD3", Status: StatusEDO, Description: "contribuyente que dedujo operaciones simuladas"},
	{RFC: "NLOC900101EF4", Status: StatusNotLocated, Description: "contribuyente no localizado en su domicilio fiscal (art. 69)"},
}

// InMemoryStore keeps entries in a map. Safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewInMemoryStore(seed ...Entry) *InMemoryStore {
	s := &InMemoryStore{entries: make(map[string]Entry, len(seed))}
	for _, e := range seed {
		s.entries[e.RFC] = e
	}
	return s
}

func (s *InMemoryStore) Lookup(_ context.Context, rfc string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[rfc]; ok {
		return e, nil
	}
	return Clean(rfc), nil
}

// Put adds or replaces an entry.
func (s *InMemoryStore) Put(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.RFC] = e
}
