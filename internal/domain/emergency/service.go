package emergency

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/domain/registry"
)

// PatientSource resolves scanned identity codes; the registry service
// satisfies it.
type PatientSource interface {
	ResolveScan(ctx context.Context, code string) (*registry.Patient, error)
}

// Summary is what the responder sees through an active grant: the full
// record regardless of the consent flag, plus the countdown.
type Summary struct {
	Grant            *Grant            `json:"grant"`
	Patient          *registry.Patient `json:"patient"`
	RemainingSeconds int               `json:"remaining_seconds"`
}

// Service implements the emergency override workflow.
type Service struct {
	store    *GrantStore
	patients PatientSource
	log      zerolog.Logger
	nowFn    func() time.Time
}

func NewService(store *GrantStore, patients PatientSource, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		patients: patients,
		log:      log,
		nowFn:    time.Now,
	}
}

// Activate opens an override window for the patient behind the scanned
// code. Every activation is audit-logged at WARN level.
func (s *Service) Activate(ctx context.Context, userID, userName, code, justification string) (*Summary, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, errs.Validation("justification is required")
	}

	p, err := s.patients.ResolveScan(ctx, code)
	if err != nil {
		return nil, err
	}

	g, err := s.store.Activate(userID, userName, p.ID, justification)
	if err != nil {
		return nil, err
	}

	s.log.Warn().
		Str("type", "emergency_override").
		Str("user_id", userID).
		Str("user_name", userName).
		Str("patient_id", p.ID).
		Str("justification", justification).
		Time("expires_at", g.ExpiresAt).
		Msg("emergency_override_activated")

	return &Summary{Grant: g, Patient: p, RemainingSeconds: g.RemainingSeconds(s.nowFn())}, nil
}

// Read returns the patient summary for an active grant, bypassing the
// consent flag. NotFoundError once the window has lapsed.
func (s *Service) Read(ctx context.Context, patientID string) (*Summary, error) {
	g, ok := s.store.ActiveGrant(patientID)
	if !ok {
		return nil, errs.NotFound("emergency grant", patientID)
	}

	p, err := s.patients.ResolveScan(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return &Summary{Grant: g, Patient: p, RemainingSeconds: g.RemainingSeconds(s.nowFn())}, nil
}

// Release ends the patient's window early.
func (s *Service) Release(patientID string) error {
	if !s.store.Release(patientID) {
		return errs.NotFound("emergency grant", patientID)
	}
	s.log.Info().Str("patient_id", patientID).Msg("emergency override released")
	return nil
}

// ListGrants returns all currently active grants.
func (s *Service) ListGrants() []*Grant {
	return s.store.List()
}
