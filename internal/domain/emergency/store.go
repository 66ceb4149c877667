package emergency

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// maxActivationsPerHour bounds how often one responder can open
	// override windows.
	maxActivationsPerHour = 10

	cleanupPeriod = time.Minute
)

// ErrRateLimited is returned when a responder exceeds the activation cap.
var ErrRateLimited = errors.New("emergency activation rate limit exceeded")

// activationRateLimit tracks per-responder activation counts within a
// rolling hour. The caller supplies the current time so tests can inject a
// deterministic clock.
type activationRateLimit struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func newActivationRateLimit() *activationRateLimit {
	return &activationRateLimit{entries: make(map[string][]time.Time)}
}

func (rl *activationRateLimit) allow(userID string, now time.Time, maxPerHour int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-1 * time.Hour)

	existing := rl.entries[userID]
	pruned := existing[:0]
	for _, ts := range existing {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= maxPerHour {
		rl.entries[userID] = pruned
		return false
	}

	rl.entries[userID] = append(pruned, now)
	return true
}

func (rl *activationRateLimit) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-1 * time.Hour)
	for userID, timestamps := range rl.entries {
		pruned := timestamps[:0]
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				pruned = append(pruned, ts)
			}
		}
		if len(pruned) == 0 {
			delete(rl.entries, userID)
		} else {
			rl.entries[userID] = pruned
		}
	}
}

// GrantStore holds the active override grants, at most one per patient.
// Expiry is lazy on read plus a background sweep, so an expired grant is
// never observable as active.
type GrantStore struct {
	mu        sync.Mutex
	byPatient map[string]*Grant
	ttl       time.Duration
	rl        *activationRateLimit
	nowFn     func() time.Time
	done      chan struct{}
}

// NewGrantStore creates a store whose grants live for ttl and starts the
// background sweep.
func NewGrantStore(ttl time.Duration) *GrantStore {
	s := &GrantStore{
		byPatient: make(map[string]*Grant),
		ttl:       ttl,
		rl:        newActivationRateLimit(),
		nowFn:     time.Now,
		done:      make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Activate opens a fresh override window for the patient. Re-activating an
// already-granted patient restarts the window. Returns ErrRateLimited when
// the responder is over the hourly cap.
func (s *GrantStore) Activate(userID, userName, patientID, justification string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	if !s.rl.allow(userID, now, maxActivationsPerHour) {
		return nil, ErrRateLimited
	}

	g := &Grant{
		ID:            uuid.NewString(),
		PatientID:     patientID,
		GrantedTo:     userID,
		GrantedToName: userName,
		Justification: justification,
		ActivatedAt:   now,
		ExpiresAt:     now.Add(s.ttl),
	}
	s.byPatient[patientID] = g

	cp := *g
	return &cp, nil
}

// ActiveGrant returns the patient's grant while its window runs.
func (s *GrantStore) ActiveGrant(patientID string) (*Grant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byPatient[patientID]
	if !ok {
		return nil, false
	}
	if !g.Active(s.nowFn()) {
		delete(s.byPatient, patientID)
		return nil, false
	}
	cp := *g
	return &cp, true
}

// HasActiveGrant reports whether the consent gate is currently bypassed
// for the patient.
func (s *GrantStore) HasActiveGrant(patientID string) bool {
	_, ok := s.ActiveGrant(patientID)
	return ok
}

// Release ends the patient's window early. Returns false when no active
// grant existed.
func (s *GrantStore) Release(patientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byPatient[patientID]
	if !ok {
		return false
	}
	active := g.Active(s.nowFn())
	delete(s.byPatient, patientID)
	return active
}

// List returns all currently active grants.
func (s *GrantStore) List() []*Grant {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	out := make([]*Grant, 0, len(s.byPatient))
	for id, g := range s.byPatient {
		if !g.Active(now) {
			delete(s.byPatient, id)
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out
}

// Close stops the background sweep. Safe to call more than once.
func (s *GrantStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *GrantStore) sweepLoop() {
	ticker := time.NewTicker(cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *GrantStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	for id, g := range s.byPatient {
		if !g.Active(now) {
			delete(s.byPatient, id)
		}
	}
	s.rl.cleanup(now)
}
