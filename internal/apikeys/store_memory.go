package apikeys

import (
	"context"
	"slices"
	"sync"
	"time"

	id "rfcheck/pkg/domain"
	"rfcheck/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	keys   map[id.APIKeyID]Key
	byHash map[string]id.APIKeyID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		keys:   make(map[id.APIKeyID]Key),
		byHash: make(map[string]id.APIKeyID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[key.Hash]; ok {
		return sentinel.ErrConflict
	}
	s.keys[key.ID] = key
	s.byHash[key.Hash] = key.ID
	return nil
}

func (s *InMemoryStore) FindByHash(_ context.Context, hash string) (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyID, ok := s.byHash[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	k := s.keys[keyID]
	return &k, nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.UserID) ([]Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Key
	for _, k := range s.keys {
		if k.OwnerID == owner {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b Key) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, owner id.UserID, keyID id.APIKeyID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[keyID]
	if !ok || k.OwnerID != owner {
		return sentinel.ErrNotFound
	}
	if k.RevokedAt == nil {
		k.RevokedAt = &at
		s.keys[keyID] = k
	}
	return nil
}
