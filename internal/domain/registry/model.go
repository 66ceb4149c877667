package registry

import "time"

// Patient is one enrolled clinical identity. Prescriptions are ordered
// newest first: new entries are prepended and consumers rely on index 0
// being the most recent.
type Patient struct {
	ID                      string         `json:"id"`
	Name                    string         `json:"name"`
	DateOfBirth             string         `json:"date_of_birth"`
	Gender                  string         `json:"gender"`
	WeightKg                float64        `json:"weight_kg"`
	HeightCm                float64        `json:"height_cm"`
	BloodGroup              string         `json:"blood_group"`
	InsuranceID             string         `json:"insurance_id"`
	PrimaryPhysician        string         `json:"primary_physician"`
	AvatarURL               string         `json:"avatar_url,omitempty"`
	Allergies               []string       `json:"allergies"`
	ChronicConditions       []string       `json:"chronic_conditions"`
	IsPharmacyAccessAllowed bool           `json:"is_pharmacy_access_allowed"`
	Prescriptions           []Prescription `json:"prescriptions"`
}

// Prescription is one clinical entry owned by exactly one patient. Content
// is either a plain-text note or an opaque encoded image payload; IsScribble
// disambiguates. IsDispensed starts false and only ever moves to true.
type Prescription struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	IsScribble    bool      `json:"is_scribble"`
	IsDispensed   bool      `json:"is_dispensed"`
	UploadedBy    string    `json:"uploaded_by"`
	AuthorLicense string    `json:"author_license"`
	Timestamp     time.Time `json:"timestamp"`
}

// Draft carries the caller-supplied fields for enrollment. Everything not
// present takes a documented default.
type Draft struct {
	Name              string   `json:"name"`
	DateOfBirth       string   `json:"date_of_birth"`
	Gender            string   `json:"gender"`
	WeightKg          float64  `json:"weight_kg"`
	HeightCm          float64  `json:"height_cm"`
	BloodGroup        string   `json:"blood_group"`
	PrimaryPhysician  string   `json:"primary_physician"`
	AvatarURL         string   `json:"avatar_url"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
}

// Clone returns a deep copy. The store hands out and accepts only copies so
// callers can never mutate stored state except through a store operation.
func (p *Patient) Clone() *Patient {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Allergies = append([]string(nil), p.Allergies...)
	cp.ChronicConditions = append([]string(nil), p.ChronicConditions...)
	cp.Prescriptions = append([]Prescription(nil), p.Prescriptions...)
	return &cp
}

// FindPrescription returns the index of the prescription with the given id,
// or -1 when the patient has no such entry.
func (p *Patient) FindPrescription(id string) int {
	for i := range p.Prescriptions {
		if p.Prescriptions[i].ID == id {
			return i
		}
	}
	return -1
}
