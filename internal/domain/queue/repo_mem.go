package queue

import (
	"context"
	"sync"

	"github.com/lifestack/lifestack/internal/domain/errs"
)

type memRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	order []string
}

// NewMemRepository returns an empty in-memory session store.
func NewMemRepository() SessionRepository {
	return &memRepository{byID: make(map[string]*Session)}
}

func (r *memRepository) Add(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; exists {
		return errs.Validation("session id %q already exists", s.ID)
	}
	r.byID[s.ID] = s.Clone()
	r.order = append(r.order, s.ID)
	return nil
}

func (r *memRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("session", id)
	}
	return s.Clone(), nil
}

func (r *memRepository) Mutate(_ context.Context, id string, fn func(*Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return errs.NotFound("session", id)
	}

	next := stored.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.ID = id
	r.byID[id] = next
	return nil
}

func (r *memRepository) List(_ context.Context) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}
