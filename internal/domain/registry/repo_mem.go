package registry

import (
	"context"
	"sync"

	"github.com/lifestack/lifestack/internal/domain/errs"
)

// memRepository is the in-process patient store. A map gives O(1) lookup
// and a separate order slice preserves insertion order for listing.
type memRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Patient
	order []string
}

// NewMemRepository returns an empty in-memory patient store.
func NewMemRepository() PatientRepository {
	return &memRepository{byID: make(map[string]*Patient)}
}

func (r *memRepository) Add(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; exists {
		return errs.Validation("patient id %q already exists", p.ID)
	}
	r.byID[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memRepository) Get(_ context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("patient", id)
	}
	return p.Clone(), nil
}

func (r *memRepository) Replace(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; !ok {
		return errs.NotFound("patient", p.ID)
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *memRepository) Mutate(_ context.Context, id string, fn func(*Patient) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return errs.NotFound("patient", id)
	}

	// fn works on a copy; the store is only touched when fn succeeds, so a
	// failed mutation leaves no partial update behind.
	next := stored.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.ID = id
	r.byID[id] = next
	return nil
}

func (r *memRepository) List(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}
