package model

import "time"

// MedicationStatus tracks a medication through its lifecycle.
type MedicationStatus string

const (
	MedicationActive       MedicationStatus = "active"
	MedicationCompleted    MedicationStatus = "completed"
	MedicationDiscontinued MedicationStatus = "discontinued"
)

// Valid reports whether the status is one of the fixed set.
func (s MedicationStatus) Valid() bool {
	switch s {
	case MedicationActive, MedicationCompleted, MedicationDiscontinued:
		return true
	}
	return false
}

// Medication is one prescribed medication for a user.
type Medication struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	Dosage       string           `json:"dosage"`
	Frequency    string           `json:"frequency"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	PrescribedBy string           `json:"prescribed_by"`
	Status       MedicationStatus `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
