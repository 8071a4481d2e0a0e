package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `
	id, email, password_hash, first_name, last_name, role,
	date_of_birth, phone_number, emergency_contact, is_active, last_login,
	created_at, updated_at
`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u       model.User
		contact []byte
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.DateOfBirth,
		&u.PhoneNumber,
		&contact,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contact, &u.EmergencyContact); err != nil {
		return nil, fmt.Errorf("decode emergency_contact: %w", err)
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	contact, err := json.Marshal(u.EmergencyContact)
	if err != nil {
		return nil, fmt.Errorf("encode emergency_contact: %w", err)
	}

	q := `
		INSERT INTO users (email, password_hash, first_name, last_name, role, date_of_birth, phone_number, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
		u.DateOfBirth,
		u.PhoneNumber,
		contact,
	)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByEmail fetches an active user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active`
	return scanUser(r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email))))
}

// UpdateProfile applies the mutable profile fields.
func (r *UserPostgres) UpdateProfile(ctx context.Context, id string, upd repository.UserProfileUpdate) (*model.User, error) {
	contact, err := json.Marshal(upd.EmergencyContact)
	if err != nil {
		return nil, fmt.Errorf("encode emergency_contact: %w", err)
	}

	q := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, emergency_contact = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, id, upd.FirstName, upd.LastName, upd.PhoneNumber, contact))
}

// UpdatePassword replaces the stored password hash.
func (r *UserPostgres) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLastLogin stamps the last successful login time.
func (r *UserPostgres) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// ListActiveByRoles returns active users with any of the given roles,
// ordered by name.
func (r *UserPostgres) ListActiveByRoles(ctx context.Context, roles []model.Role) ([]model.User, error) {
	placeholders := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = role
	}

	q := `SELECT ` + userColumns + `
		FROM users
		WHERE is_active AND role IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY last_name, first_name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
