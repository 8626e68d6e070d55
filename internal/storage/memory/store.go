package memory

import (
	"context"
	"sync"

	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/domain"
)

// Store keeps moderation flags for the lifetime of the process.
// One mutex serializes every read-modify-write.
type Store struct {
	mu    sync.Mutex
	flags map[int64]domain.ModerationFlags
}

func New() *Store { return &Store{flags: make(map[int64]domain.ModerationFlags)} }

func (s *Store) Get(_ context.Context, id int64) (domain.ModerationFlags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	observability.ObserveStore("memory", "get")
	return s.get(id), nil
}

// get must be called with mu held.
func (s *Store) get(id int64) domain.ModerationFlags {
	st, ok := s.flags[id]
	if !ok {
		return domain.ModerationFlags{Approved: false, Featured: false}
	}
	return st
}

func (s *Store) GetMany(_ context.Context, ids []int64) (map[int64]domain.ModerationFlags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	observability.ObserveStore("memory", "get_many")
	out := make(map[int64]domain.ModerationFlags, len(ids))
	for _, id := range ids {
		out[id] = s.get(id)
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, id int64, p domain.ModerationPatch) (domain.ModerationFlags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	observability.ObserveStore("memory", "set")
	st := p.Apply(s.get(id))
	s.flags[id] = st
	return st, nil
}

// Len reports how many ids have been written.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags)
}
