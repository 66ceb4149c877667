package auth

import "context"

// Role identifies which portal an actor signed in through. Roles are
// mutually exclusive; admin additionally passes every role check.
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RolePharmacist Role = "pharmacist"
	RoleAdmin      Role = "admin"
	RoleEmergency  Role = "emergency"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacist, RoleAdmin, RoleEmergency:
		return true
	}
	return false
}

// Actor is the authenticated caller attached to a request. Exactly one
// actor is signed in per token; services read it instead of a global
// "current user".
type Actor struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Role              Role   `json:"role"`
	LicenseID         string `json:"license_id,omitempty"`
	PatientID         string `json:"patient_id,omitempty"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
	TokenID           string `json:"-"`
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// FromContext extracts the actor from a context.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
