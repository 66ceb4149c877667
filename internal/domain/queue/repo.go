package queue

import "context"

// SessionRepository stores sessions. Implementations hand out deep copies
// and commit mutations atomically.
type SessionRepository interface {
	Add(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Mutate(ctx context.Context, id string, fn func(*Session) error) error
	List(ctx context.Context) ([]*Session, error)
}
