package emergency

import "time"

// Grant is one active emergency override: a time-boxed bypass of the
// pharmacy-consent gate for a single patient. It vanishes when the window
// lapses or the responder releases it; a new activation starts a fresh
// window.
type Grant struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	GrantedTo     string    `json:"granted_to"`
	GrantedToName string    `json:"granted_to_name"`
	Justification string    `json:"justification"`
	ActivatedAt   time.Time `json:"activated_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// RemainingSeconds is the countdown the responder sees. Zero once expired.
func (g *Grant) RemainingSeconds(now time.Time) int {
	rem := g.ExpiresAt.Sub(now)
	if rem <= 0 {
		return 0
	}
	return int(rem.Seconds() + 0.5)
}

// Active reports whether the grant's window still runs at the given time.
func (g *Grant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}
