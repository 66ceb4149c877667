package queue

import "time"

// Status is a session's place in its lifecycle. Waiting is the only
// initial state and Completed the only terminal one; there is no
// cancellation or reassignment.
type Status string

const (
	StatusWaiting   Status = "Waiting"
	StatusCompleted Status = "Completed"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	return s == StatusWaiting || s == StatusCompleted
}

// Session places one patient in one clinician's queue. PatientID is a weak
// reference: the session relates to the patient by id lookup only and does
// not own the record it names.
type Session struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	ClinicianName string    `json:"clinician_name"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
