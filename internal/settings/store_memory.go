package settings

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory Store useful for tests.
// It is not intended for production use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record

	// Err, when set, is returned by every Fetch.
	Err error

	fetches int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.CommunityID] = r
}

func (s *MemoryStore) Fetch(ctx context.Context, communityID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.Err != nil {
		return Record{}, s.Err
	}
	r, ok := s.records[communityID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Fetches reports how many Fetch calls were made.
func (s *MemoryStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}
