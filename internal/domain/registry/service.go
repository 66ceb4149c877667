package registry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/codes"
)

// Enrollment defaults for fields the draft leaves empty.
const (
	DefaultDateOfBirth = "1990-01-01"
	DefaultGender      = "UNSPECIFIED"
	DefaultWeightKg    = 70
	DefaultHeightCm    = 175
)

// Service implements the record store's mutation contract on top of a
// PatientRepository.
type Service struct {
	repo             PatientRepository
	codes            *codes.Generator
	defaultClinician string
	log              zerolog.Logger
	nowFn            func() time.Time
}

func NewService(repo PatientRepository, gen *codes.Generator, defaultClinician string, log zerolog.Logger) *Service {
	return &Service{
		repo:             repo,
		codes:            gen,
		defaultClinician: defaultClinician,
		log:              log,
		nowFn:            time.Now,
	}
}

// EnrollPatient creates a new patient from the draft. Name and blood group
// are required; everything else takes a documented default. Consent starts
// allowed and the collections start empty.
func (s *Service) EnrollPatient(ctx context.Context, d Draft) (*Patient, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, errs.Validation("name is required")
	}
	if strings.TrimSpace(d.BloodGroup) == "" {
		return nil, errs.Validation("blood group is required")
	}

	p := &Patient{
		ID:                      s.codes.Next(codes.PrefixPatient, 4),
		Name:                    d.Name,
		DateOfBirth:             d.DateOfBirth,
		Gender:                  d.Gender,
		WeightKg:                d.WeightKg,
		HeightCm:                d.HeightCm,
		BloodGroup:              d.BloodGroup,
		InsuranceID:             s.codes.Next(codes.PrefixInsurance, 6),
		PrimaryPhysician:        d.PrimaryPhysician,
		AvatarURL:               d.AvatarURL,
		Allergies:               append([]string{}, d.Allergies...),
		ChronicConditions:       append([]string{}, d.ChronicConditions...),
		IsPharmacyAccessAllowed: true,
		Prescriptions:           []Prescription{},
	}
	if p.DateOfBirth == "" {
		p.DateOfBirth = DefaultDateOfBirth
	}
	if p.Gender == "" {
		p.Gender = DefaultGender
	}
	if p.WeightKg == 0 {
		p.WeightKg = DefaultWeightKg
	}
	if p.HeightCm == 0 {
		p.HeightCm = DefaultHeightCm
	}
	if p.PrimaryPhysician == "" {
		p.PrimaryPhysician = s.defaultClinician
	}

	if err := s.repo.Add(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("patient_id", p.ID).Msg("patient enrolled")
	return p, nil
}

// UpdatePatient replaces the stored record wholesale, keyed by p.ID. The
// caller constructs the full next-state value; interleaved read-modify-write
// callers can stomp each other's changes, which is inherent to this replace
// contract.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return errs.Validation("patient id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errs.Validation("name is required")
	}
	return s.repo.Replace(ctx, p)
}

// TogglePharmacyConsent flips the consent flag and returns the new value.
// Calling it twice restores the original state.
func (s *Service) TogglePharmacyConsent(ctx context.Context, patientID string) (bool, error) {
	var flag bool
	err := s.repo.Mutate(ctx, patientID, func(p *Patient) error {
		p.IsPharmacyAccessAllowed = !p.IsPharmacyAccessAllowed
		flag = p.IsPharmacyAccessAllowed
		return nil
	})
	if err != nil {
		return false, err
	}
	s.log.Info().Str("patient_id", patientID).Bool("allowed", flag).Msg("pharmacy consent toggled")
	return flag, nil
}

// AppendPrescription prepends a prescription to the patient's sequence.
// IsDispensed is forced to false, an RX id is generated when absent, and an
// id colliding with an existing entry for that patient is rejected.
func (s *Service) AppendPrescription(ctx context.Context, patientID string, rx Prescription) (*Prescription, error) {
	if strings.TrimSpace(rx.Title) == "" {
		return nil, errs.Validation("prescription title is required")
	}

	if rx.ID == "" {
		rx.ID = s.codes.Next(codes.PrefixPrescription, 3)
	} else {
		s.codes.Reserve(rx.ID)
	}
	rx.IsDispensed = false
	if rx.Timestamp.IsZero() {
		rx.Timestamp = s.nowFn()
	}

	err := s.repo.Mutate(ctx, patientID, func(p *Patient) error {
		if p.FindPrescription(rx.ID) >= 0 {
			return errs.Validation("prescription id %q already exists for patient %s", rx.ID, patientID)
		}
		p.Prescriptions = append([]Prescription{rx}, p.Prescriptions...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("patient_id", patientID).
		Str("prescription_id", rx.ID).
		Bool("scribble", rx.IsScribble).
		Msg("prescription added")
	return &rx, nil
}

// DispensePrescription marks a prescription dispensed. Idempotent: a second
// call on an already-dispensed entry succeeds with no further effect. The
// flag never moves back to false.
func (s *Service) DispensePrescription(ctx context.Context, patientID, rxID string) error {
	return s.repo.Mutate(ctx, patientID, func(p *Patient) error {
		i := p.FindPrescription(rxID)
		if i < 0 {
			return errs.NotFound("prescription", rxID)
		}
		p.Prescriptions[i].IsDispensed = true
		return nil
	})
}

// QueryPatients returns all patients matching the predicate, in insertion
// order.
func (s *Service) QueryPatients(ctx context.Context, match func(*Patient) bool) ([]*Patient, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Patient, 0, len(all))
	for _, p := range all {
		if match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// SearchPatients is the search-box filter: case-insensitive substring match
// over name and id. An empty term matches everything.
func (s *Service) SearchPatients(ctx context.Context, term string) ([]*Patient, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	return s.QueryPatients(ctx, func(p *Patient) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.ID), needle)
	})
}

// FindPatientByID returns the patient or a NotFoundError.
func (s *Service) FindPatientByID(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

// ListPatients returns every patient in insertion order.
func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// ResolveScan maps a scanned code onto a patient record. A miss means the
// scanned identity is invalid, which is a user-facing condition, not a
// system fault.
func (s *Service) ResolveScan(ctx context.Context, code string) (*Patient, error) {
	return s.repo.Get(ctx, strings.TrimSpace(code))
}
