package registry

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lifestack/lifestack/internal/domain/errs"
	"github.com/lifestack/lifestack/internal/platform/codes"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewService(NewMemRepository(), codes.NewSeededGenerator(42), "Dr. Sarah Lee", log)
}

func TestEnrollPatientScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected a generated id")
	}
	if len(p.Allergies) != 0 || len(p.Prescriptions) != 0 {
		t.Error("expected empty allergy and prescription collections")
	}
	if !p.IsPharmacyAccessAllowed {
		t.Error("expected consent to default to allowed")
	}

	rx, err := svc.AppendPrescription(ctx, p.ID, Prescription{
		Title:      "Handwritten note",
		Content:    "data:image/png;base64,...",
		IsScribble: true,
		UploadedBy: "Dr. Sarah Lee",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rx.IsScribble {
		t.Error("expected scribble flag to survive")
	}

	got, _ := svc.FindPatientByID(ctx, p.ID)
	if len(got.Prescriptions) != 1 || !got.Prescriptions[0].IsScribble {
		t.Errorf("expected one scribble prescription at index 0, got %+v", got.Prescriptions)
	}
}

func TestEnrollPatientDefaults(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.EnrollPatient(context.Background(), Draft{Name: "Bob Lee", BloodGroup: "B+"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DateOfBirth != DefaultDateOfBirth {
		t.Errorf("expected default dob, got %s", p.DateOfBirth)
	}
	if p.Gender != DefaultGender {
		t.Errorf("expected default gender, got %s", p.Gender)
	}
	if p.WeightKg != DefaultWeightKg || p.HeightCm != DefaultHeightCm {
		t.Errorf("expected default body measurements, got %v/%v", p.WeightKg, p.HeightCm)
	}
	if p.PrimaryPhysician != "Dr. Sarah Lee" {
		t.Errorf("expected default clinician, got %s", p.PrimaryPhysician)
	}
	if p.InsuranceID == "" {
		t.Error("expected a generated insurance id")
	}
}

func TestEnrollPatientValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.EnrollPatient(ctx, Draft{Name: "  ", BloodGroup: "B+"}); !errs.IsValidation(err) {
		t.Errorf("expected ValidationError for empty name, got %v", err)
	}
	if _, err := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee"}); !errs.IsValidation(err) {
		t.Errorf("expected ValidationError for empty blood group, got %v", err)
	}
}

func TestEnrollPatientIDsUnique(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		p, err := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "O+"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[p.ID]; dup {
			t.Fatalf("duplicate patient id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
}

func TestUpdatePatientReplacesWholeRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+", Allergies: []string{"Peanuts"}})

	next := p.Clone()
	next.Name = "Robert Lee"
	next.Allergies = nil
	if err := svc.UpdatePatient(ctx, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := svc.FindPatientByID(ctx, p.ID)
	if got.Name != "Robert Lee" {
		t.Errorf("expected replaced name, got %s", got.Name)
	}
	if len(got.Allergies) != 0 {
		t.Error("expected replace to drop allergies not present in the new value")
	}
}

func TestUpdatePatientMissing(t *testing.T) {
	svc := newTestService(t)
	err := svc.UpdatePatient(context.Background(), &Patient{ID: "P-404", Name: "X"})
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

// Two callers that each captured the record before the other's replace
// landed overwrite one another. The replace contract makes this possible
// and it is deliberate behavior, not a bug.
func TestUpdatePatientLostUpdateHazard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})

	snapshotA := p.Clone()
	snapshotB := p.Clone()

	snapshotA.IsPharmacyAccessAllowed = false
	if err := svc.UpdatePatient(ctx, snapshotA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshotB.Name = "Robert Lee"
	if err := svc.UpdatePatient(ctx, snapshotB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := svc.FindPatientByID(ctx, p.ID)
	if got.Name != "Robert Lee" {
		t.Errorf("expected later replace to win on name, got %s", got.Name)
	}
	if !got.IsPharmacyAccessAllowed {
		t.Log("earlier consent change was stomped, as the replace contract allows")
	} else {
		t.Error("expected the later whole-record replace to overwrite the consent change")
	}
}

func TestTogglePharmacyConsentInvolution(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})

	first, err := svc.TogglePharmacyConsent(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first {
		t.Error("expected first toggle to disallow")
	}

	second, _ := svc.TogglePharmacyConsent(ctx, p.ID)
	if !second {
		t.Error("expected second toggle to restore the original value")
	}

	if _, err := svc.TogglePharmacyConsent(ctx, "P-404"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestAppendPrescriptionNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})

	x, _ := svc.AppendPrescription(ctx, p.ID, Prescription{Title: "X"})
	y, _ := svc.AppendPrescription(ctx, p.ID, Prescription{Title: "Y"})

	got, _ := svc.FindPatientByID(ctx, p.ID)
	if got.Prescriptions[0].ID != y.ID || got.Prescriptions[1].ID != x.ID {
		t.Errorf("expected newest-first ordering, got %+v", got.Prescriptions)
	}
}

func TestAppendPrescriptionForcesUndispensed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})
	rx, err := svc.AppendPrescription(ctx, p.ID, Prescription{Title: "X", IsDispensed: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rx.IsDispensed {
		t.Error("expected dispensed flag to be forced false on append")
	}
}

func TestAppendPrescriptionDuplicateID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})
	if _, err := svc.AppendPrescription(ctx, p.ID, Prescription{ID: "RX-1", Title: "X"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.AppendPrescription(ctx, p.ID, Prescription{ID: "RX-1", Title: "Y"})
	if !errs.IsValidation(err) {
		t.Errorf("expected ValidationError for duplicate id, got %v", err)
	}

	if _, err := svc.AppendPrescription(ctx, "P-404", Prescription{Title: "Z"}); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown patient, got %v", err)
	}
}

func TestDispensePrescriptionIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})
	rx, _ := svc.AppendPrescription(ctx, p.ID, Prescription{Title: "X"})

	if err := svc.DispensePrescription(ctx, p.ID, rx.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second call: no error, no additional effect.
	if err := svc.DispensePrescription(ctx, p.ID, rx.ID); err != nil {
		t.Errorf("expected second dispense to be a no-op, got %v", err)
	}

	got, _ := svc.FindPatientByID(ctx, p.ID)
	if !got.Prescriptions[0].IsDispensed {
		t.Error("expected prescription to stay dispensed")
	}
}

func TestDispensePrescriptionIrreversible(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})
	rx, _ := svc.AppendPrescription(ctx, p.ID, Prescription{Title: "X"})
	svc.DispensePrescription(ctx, p.ID, rx.ID)

	// Other mutations leave the flag alone.
	svc.TogglePharmacyConsent(ctx, p.ID)
	svc.AppendPrescription(ctx, p.ID, Prescription{Title: "Y"})

	got, _ := svc.FindPatientByID(ctx, p.ID)
	i := got.FindPrescription(rx.ID)
	if i < 0 || !got.Prescriptions[i].IsDispensed {
		t.Error("expected dispensed flag to never revert")
	}
}

func TestDispensePrescriptionNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})

	if err := svc.DispensePrescription(ctx, p.ID, "RX-404"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown prescription, got %v", err)
	}
	if err := svc.DispensePrescription(ctx, "P-404", "RX-404"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown patient, got %v", err)
	}
}

func TestSearchPatients(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	repo.Add(ctx, &Patient{ID: "P-1001", Name: "Alice Johnson"})
	repo.Add(ctx, &Patient{ID: "P-1003", Name: "David Chen"})

	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewService(repo, codes.NewSeededGenerator(1), "Dr. Sarah Lee", log)

	got, err := svc.SearchPatients(ctx, "ali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Alice Johnson" {
		t.Errorf("expected exactly Alice Johnson for 'ali', got %+v", got)
	}

	got, _ = svc.SearchPatients(ctx, "P-100")
	if len(got) != 2 {
		t.Errorf("expected both patients for 'P-100', got %d", len(got))
	}

	got, _ = svc.SearchPatients(ctx, "")
	if len(got) != 2 {
		t.Errorf("expected empty term to match everything, got %d", len(got))
	}
}

func TestQueryPatientsPredicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.EnrollPatient(ctx, Draft{Name: "A", BloodGroup: "O+"})
	svc.EnrollPatient(ctx, Draft{Name: "B", BloodGroup: "A-"})
	svc.AppendPrescription(ctx, a.ID, Prescription{Title: "X"})

	pending, err := svc.QueryPatients(ctx, func(p *Patient) bool {
		for _, rx := range p.Prescriptions {
			if !rx.IsDispensed {
				return true
			}
		}
		return false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("expected only the patient with a pending prescription, got %+v", pending)
	}
}

func TestResolveScan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, _ := svc.EnrollPatient(ctx, Draft{Name: "Bob Lee", BloodGroup: "B+"})

	got, err := svc.ResolveScan(ctx, "  "+p.ID+"\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected %s, got %s", p.ID, got.ID)
	}

	if _, err := svc.ResolveScan(ctx, "P-404"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown code, got %v", err)
	}
}
