package queue

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/codes"
)

// PatientChecker reports whether a patient id resolves, returning the
// registry's NotFoundError when it does not. Keeps the queue decoupled
// from the registry package.
type PatientChecker func(ctx context.Context, id string) error

// Service owns the session lifecycle.
type Service struct {
	repo             SessionRepository
	codes            *codes.Generator
	checkPatient     PatientChecker
	defaultClinician string
	log              zerolog.Logger
	nowFn            func() time.Time
}

func NewService(repo SessionRepository, gen *codes.Generator, check PatientChecker, defaultClinician string, log zerolog.Logger) *Service {
	return &Service{
		repo:             repo,
		codes:            gen,
		checkPatient:     check,
		defaultClinician: defaultClinician,
		log:              log,
		nowFn:            time.Now,
	}
}

// CreateSession dispatches a patient into a clinician's queue. The store,
// not the caller, owns the initial state: status is always Waiting. An
// empty clinician name falls back to the configured default, which stands
// in for a real clinician-selection step.
func (s *Service) CreateSession(ctx context.Context, patientID, clinicianName string) (*Session, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, errs.Validation("patient id is required")
	}
	if s.checkPatient != nil {
		if err := s.checkPatient(ctx, patientID); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(clinicianName) == "" {
		clinicianName = s.defaultClinician
	}

	sess := &Session{
		ID:            s.codes.Next(codes.PrefixSession, 3),
		PatientID:     patientID,
		ClinicianName: clinicianName,
		Status:        StatusWaiting,
		Timestamp:     s.nowFn(),
	}
	if err := s.repo.Add(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Str("patient_id", patientID).
		Str("clinician", clinicianName).
		Msg("session dispatched")
	return sess, nil
}

// UpdateSessionStatus moves a session forward. Waiting→Completed is the
// only real transition; requesting the current status again is a no-op and
// any backward move is a StateError.
func (s *Service) UpdateSessionStatus(ctx context.Context, sessionID string, status Status) error {
	if !ValidStatus(status) {
		return errs.Validation("unknown session status %q", status)
	}

	return s.repo.Mutate(ctx, sessionID, func(sess *Session) error {
		if sess.Status == status {
			return nil
		}
		if sess.Status == StatusCompleted {
			return errs.State("cannot move session %s from %s to %s", sessionID, sess.Status, status)
		}
		sess.Status = status
		return nil
	})
}

// FindSessionsForClinician returns the clinician's sessions in dispatch
// order, optionally filtered by status (empty = all).
func (s *Service) FindSessionsForClinician(ctx context.Context, clinicianName string, status Status) ([]*Session, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(all))
	for _, sess := range all {
		if sess.ClinicianName != clinicianName {
			continue
		}
		if status != "" && sess.Status != status {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// ListSessions returns every session in dispatch order.
func (s *Service) ListSessions(ctx context.Context) ([]*Session, error) {
	return s.repo.List(ctx)
}
