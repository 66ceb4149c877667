package registry

import "context"

// PatientRepository is the storage contract for the record store. Every
// method either fully succeeds or fails with a domain error and no partial
// mutation. Implementations hand out deep copies only.
type PatientRepository interface {
	// Add appends a new patient. Fails with a ValidationError when the id
	// is already taken.
	Add(ctx context.Context, p *Patient) error

	// Get returns a copy of the patient, or a NotFoundError.
	Get(ctx context.Context, id string) (*Patient, error)

	// Replace swaps the stored record for the given value in full, keyed by
	// p.ID. NotFoundError when no such patient exists.
	Replace(ctx context.Context, p *Patient) error

	// Mutate applies fn to a copy of the stored patient and commits the
	// copy only if fn returns nil. This is the field-level primitive the
	// service builds its targeted mutations on.
	Mutate(ctx context.Context, id string, fn func(*Patient) error) error

	// List returns copies of all patients in insertion order.
	List(ctx context.Context) ([]*Patient, error)
}
