package repository

import (
	"context"
	"time"

	"carevault/internal/model"
)

// UserProfileUpdate carries the mutable profile fields.
type UserProfileUpdate struct {
	FirstName        string
	LastName         string
	PhoneNumber      string
	EmergencyContact model.EmergencyContact
}

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by id. Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns an active user by email. Returns sql.ErrNoRows when absent.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile applies the profile fields and returns the updated row.
	UpdateProfile(ctx context.Context, id string, upd UserProfileUpdate) (*model.User, error)

	// UpdatePassword replaces the stored bcrypt hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateLastLogin stamps the last successful login time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// ListActiveByRoles returns active users holding any of the given roles.
	ListActiveByRoles(ctx context.Context, roles []model.Role) ([]model.User, error)
}
