// Package sandbox seeds the demo dataset the service starts with. The
// records are fixed so that scanned codes, screenshots, and test scripts
// stay stable across restarts.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifestack/lifestack/internal/domain/queue"
	"github.com/lifestack/lifestack/internal/domain/registry"
	"github.com/lifestack/lifestack/internal/platform/codes"
)

// Seeder writes demo patients and sessions straight into the repositories,
// bypassing the services so it can assign the well-known ids and the one
// pre-dispensed prescription.
type Seeder struct {
	patients registry.PatientRepository
	sessions queue.SessionRepository
	codes    *codes.Generator
	log      zerolog.Logger

	// ExtraPatients adds synthetic records on top of the fixed set.
	ExtraPatients int
}

// SeedResult reports what was written.
type SeedResult struct {
	Patients int
	Sessions int
}

func NewSeeder(patients registry.PatientRepository, sessions queue.SessionRepository, gen *codes.Generator, log zerolog.Logger) *Seeder {
	return &Seeder{patients: patients, sessions: sessions, codes: gen, log: log}
}

// Seed loads the demo dataset. Fixed ids are reserved with the generator so
// later enrollments can never collide with them.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	for _, p := range demoPatients() {
		s.codes.Reserve(p.ID)
		s.codes.Reserve(p.InsuranceID)
		for _, rx := range p.Prescriptions {
			s.codes.Reserve(rx.ID)
		}
		if err := s.patients.Add(ctx, p); err != nil {
			return res, fmt.Errorf("seeding patient %s: %w", p.ID, err)
		}
		res.Patients++
	}

	for _, sess := range demoSessions() {
		s.codes.Reserve(sess.ID)
		if err := s.sessions.Add(ctx, sess); err != nil {
			return res, fmt.Errorf("seeding session %s: %w", sess.ID, err)
		}
		res.Sessions++
	}

	if s.ExtraPatients > 0 {
		n, err := s.seedSynthetic(ctx, s.ExtraPatients)
		res.Patients += n
		if err != nil {
			return res, err
		}
	}

	s.log.Info().
		Int("patients", res.Patients).
		Int("sessions", res.Sessions).
		Msg("sandbox dataset seeded")
	return res, nil
}

func demoPatients() []*registry.Patient {
	return []*registry.Patient{
		{
			ID:                "P-1001",
			Name:              "Alice Johnson",
			DateOfBirth:       "1992-05-14",
			Gender:            "Female",
			WeightKg:          65,
			HeightCm:          168,
			BloodGroup:        "O+",
			InsuranceID:       "INS-77221-X",
			PrimaryPhysician:  "Dr. Sarah Lee",
			AvatarURL:         "https://api.dicebear.com/7.x/avataaars/svg?seed=Alice",
			Allergies:         []string{"Penicillin", "Peanuts"},
			ChronicConditions: []string{"Type 2 Diabetes"},

			IsPharmacyAccessAllowed: true,
			Prescriptions: []registry.Prescription{
				{
					ID:            "RX-201",
					Title:         "Insulin Regular",
					Content:       "Inject 10 units before meals.",
					IsScribble:    false,
					IsDispensed:   true,
					UploadedBy:    "Dr. Sarah Lee",
					AuthorLicense: "L-99231",
					Timestamp:     time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			ID:                "P-1002",
			Name:              "Sarah Miller",
			DateOfBirth:       "1985-11-20",
			Gender:            "Female",
			WeightKg:          72,
			HeightCm:          170,
			BloodGroup:        "A-",
			InsuranceID:       "INS-88123-Y",
			PrimaryPhysician:  "Dr. Robert Smith",
			AvatarURL:         "https://api.dicebear.com/7.x/avataaars/svg?seed=Sarah",
			Allergies:         []string{"Latex"},
			ChronicConditions: []string{"Hypertension"},

			IsPharmacyAccessAllowed: false,
			Prescriptions: []registry.Prescription{
				{
					ID:            "RX-202",
					Title:         "Anti-inflammatory Course",
					Content:       "Handwritten note placeholder",
					IsScribble:    true,
					IsDispensed:   false,
					UploadedBy:    "Dr. Robert Smith",
					AuthorLicense: "L-44512",
					Timestamp:     time.Date(2024, 2, 1, 15, 30, 0, 0, time.UTC),
				},
			},
		},
		{
			ID:                "P-1003",
			Name:              "David Chen",
			DateOfBirth:       "1995-03-25",
			Gender:            "Male",
			WeightKg:          80,
			HeightCm:          182,
			BloodGroup:        "B+",
			InsuranceID:       "INS-11223-Z",
			PrimaryPhysician:  "Dr. Sarah Lee",
			AvatarURL:         "https://api.dicebear.com/7.x/avataaars/svg?seed=David",
			Allergies:         []string{},
			ChronicConditions: []string{"Asthma"},

			IsPharmacyAccessAllowed: true,
			Prescriptions:           []registry.Prescription{},
		},
		{
			ID:                "P-1004",
			Name:              "Elena Rodriguez",
			DateOfBirth:       "1990-08-30",
			Gender:            "Female",
			WeightKg:          58,
			HeightCm:          162,
			BloodGroup:        "AB+",
			InsuranceID:       "INS-99001-A",
			PrimaryPhysician:  "Dr. Robert Smith",
			AvatarURL:         "https://api.dicebear.com/7.x/avataaars/svg?seed=Elena",
			Allergies:         []string{"Sulfa drugs"},
			ChronicConditions: []string{},

			IsPharmacyAccessAllowed: false,
			Prescriptions:           []registry.Prescription{},
		},
	}
}

func demoSessions() []*queue.Session {
	now := time.Now().UTC()
	return []*queue.Session{
		{ID: "S-101", PatientID: "P-1003", ClinicianName: "Dr. Sarah Lee", Status: queue.StatusWaiting, Timestamp: now},
		{ID: "S-102", PatientID: "P-1002", ClinicianName: "Dr. Robert Smith", Status: queue.StatusWaiting, Timestamp: now},
		{ID: "S-103", PatientID: "P-1004", ClinicianName: "Dr. Sarah Lee", Status: queue.StatusWaiting, Timestamp: now},
	}
}

var syntheticNames = []string{
	"Marcus Webb", "Priya Natarajan", "Tomás Alvarez", "Yuki Tanaka",
	"Grace Okafor", "Liam O'Connor", "Fatima Haddad", "Jonas Berg",
}

var bloodGroups = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}

// seedSynthetic fills the registry out with generated records for load and
// pagination demos. Deterministic for a fixed generator seed.
func (s *Seeder) seedSynthetic(ctx context.Context, n int) (int, error) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		p := &registry.Patient{
			ID:                      s.codes.Next(codes.PrefixPatient, 4),
			Name:                    syntheticNames[rnd.Intn(len(syntheticNames))],
			DateOfBirth:             registry.DefaultDateOfBirth,
			Gender:                  registry.DefaultGender,
			WeightKg:                registry.DefaultWeightKg,
			HeightCm:                registry.DefaultHeightCm,
			BloodGroup:              bloodGroups[rnd.Intn(len(bloodGroups))],
			InsuranceID:             s.codes.Next(codes.PrefixInsurance, 6),
			PrimaryPhysician:        "Dr. Sarah Lee",
			Allergies:               []string{},
			ChronicConditions:       []string{},
			IsPharmacyAccessAllowed: true,
			Prescriptions:           []registry.Prescription{},
		}
		if err := s.patients.Add(ctx, p); err != nil {
			return i, fmt.Errorf("seeding synthetic patient: %w", err)
		}
	}
	return n, nil
}
