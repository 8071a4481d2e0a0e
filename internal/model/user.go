package model

import "time"

// Role determines a user's capabilities in the application.
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
	RoleClinician Role = "clinician"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the fixed set.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleCaregiver, RoleClinician, RoleAdmin:
		return true
	}
	return false
}

// EmergencyContact holds an optional contact person for a user.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// User is an account in the system. PasswordHash is a bcrypt hash and is
// never serialized in API responses.
type User struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	PasswordHash     string           `json:"-"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Role             Role             `json:"role"`
	DateOfBirth      *time.Time       `json:"date_of_birth,omitempty"`
	PhoneNumber      string           `json:"phone_number,omitempty"`
	EmergencyContact EmergencyContact `json:"emergency_contact,omitempty"`
	IsActive         bool             `json:"is_active"`
	LastLogin        *time.Time       `json:"last_login,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
