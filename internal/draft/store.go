package draft

import (
	"sync"

	"github.com/fakturio/fakturio/internal/apperr"
)

// Store keeps the session's drafts in memory, keyed by draft id and
// scoped to their owner. Discarded drafts are gone; nothing here is
// persisted until submit.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

func NewStore() *Store {
	return &Store{drafts: make(map[string]*Draft)}
}

func (s *Store) Create(ownerID string) *Draft {
	d := New(ownerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID()] = d
	return d
}

// Get returns the draft if it exists and belongs to ownerID. Absent and
// not-owned are indistinguishable to the caller.
func (s *Store) Get(ownerID, id string) (*Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok || d.OwnerID() != ownerID {
		return nil, apperr.New(apperr.NotFound, "draft_not_found")
	}
	return d, nil
}

func (s *Store) Discard(ownerID, id string) error {
	if _, err := s.Get(ownerID, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
