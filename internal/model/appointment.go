package model

import "time"

// AppointmentType classifies an appointment.
type AppointmentType string

const (
	AppointmentConsultation AppointmentType = "consultation"
	AppointmentTreatment    AppointmentType = "treatment"
	AppointmentCheckup      AppointmentType = "checkup"
	AppointmentTest         AppointmentType = "test"
	AppointmentOther        AppointmentType = "other"
)

// Valid reports whether the type is one of the fixed set.
func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentConsultation, AppointmentTreatment, AppointmentCheckup, AppointmentTest, AppointmentOther:
		return true
	}
	return false
}

// AppointmentStatus tracks the scheduling state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Valid reports whether the status is one of the fixed set.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// ReminderPrefs holds per-appointment reminder delivery preferences.
type ReminderPrefs struct {
	Email  bool       `json:"email"`
	SMS    bool       `json:"sms"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// Appointment is one scheduled appointment for a user.
type Appointment struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Type        AppointmentType   `json:"type"`
	Provider    string            `json:"provider"`
	Location    string            `json:"location"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Status      AppointmentStatus `json:"status"`
	Reminders   ReminderPrefs     `json:"reminders"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
