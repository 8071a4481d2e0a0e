package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// AppointmentPostgres is a PostgreSQL implementation of repository.AppointmentRepository.
type AppointmentPostgres struct {
	db *sql.DB
}

// NewAppointmentPostgres creates a new AppointmentPostgres repository.
func NewAppointmentPostgres(db *sql.DB) *AppointmentPostgres {
	return &AppointmentPostgres{db: db}
}

var _ repository.AppointmentRepository = (*AppointmentPostgres)(nil)

const appointmentColumns = `
	id, user_id, title, description, type, provider, location,
	start_time, end_time, status, remind_email, remind_sms, reminder_sent_at,
	notes, created_at, updated_at
`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Title,
		&a.Description,
		&a.Type,
		&a.Provider,
		&a.Location,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Reminders.Email,
		&a.Reminders.SMS,
		&a.Reminders.SentAt,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an appointment row and returns the stored record.
func (r *AppointmentPostgres) Create(ctx context.Context, a *model.Appointment) (*model.Appointment, error) {
	q := `
		INSERT INTO appointments (user_id, title, description, type, provider, location, start_time, end_time, status, remind_email, remind_sms, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + appointmentColumns
	row := r.db.QueryRowContext(ctx, q,
		a.UserID, a.Title, a.Description, a.Type, a.Provider, a.Location,
		a.StartTime, a.EndTime, a.Status, a.Reminders.Email, a.Reminders.SMS, a.Notes,
	)
	return scanAppointment(row)
}

// FindByID fetches an appointment owned by the user.
func (r *AppointmentPostgres) FindByID(ctx context.Context, id, userID string) (*model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND user_id = $2`
	return scanAppointment(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListForUser returns the user's appointments soonest first, optionally
// bounded by time range and status.
func (r *AppointmentPostgres) ListForUser(ctx context.Context, userID string, f repository.AppointmentFilter) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE user_id = $1`
	args := []any{userID}
	if !f.Start.IsZero() && !f.End.IsZero() {
		args = append(args, f.Start, f.End)
		q += fmt.Sprintf(" AND start_time >= $%d AND start_time <= $%d", len(args)-1, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	items := make([]model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable fields of an appointment owned by a.UserID.
func (r *AppointmentPostgres) Update(ctx context.Context, a *model.Appointment) (*model.Appointment, error) {
	q := `
		UPDATE appointments
		SET title = $3, description = $4, type = $5, provider = $6, location = $7,
		    start_time = $8, end_time = $9, status = $10, notes = $11, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + appointmentColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID, a.UserID, a.Title, a.Description, a.Type, a.Provider, a.Location,
		a.StartTime, a.EndTime, a.Status, a.Notes,
	)
	return scanAppointment(row)
}

// UpdateReminders replaces the reminder preferences.
func (r *AppointmentPostgres) UpdateReminders(ctx context.Context, id, userID string, prefs model.ReminderPrefs) (*model.Appointment, error) {
	q := `
		UPDATE appointments
		SET remind_email = $3, remind_sms = $4, reminder_sent_at = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRowContext(ctx, q, id, userID, prefs.Email, prefs.SMS, prefs.SentAt))
}

// Delete removes an appointment owned by the user. Returns sql.ErrNoRows
// when no owned row matched.
func (r *AppointmentPostgres) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM appointments WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
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

// ListUpcoming returns scheduled appointments in [from, to), soonest first.
func (r *AppointmentPostgres) ListUpcoming(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1 AND status = 'scheduled' AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListDueReminders returns appointments starting in [from, to) that have a
// reminder channel enabled and no reminder sent yet, across all users.
func (r *AppointmentPostgres) ListDueReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		  AND (remind_email OR remind_sms)
		  AND reminder_sent_at IS NULL
		  AND start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// CountUpcoming returns how many scheduled appointments start at or after from.
func (r *AppointmentPostgres) CountUpcoming(ctx context.Context, userID string, from time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM appointments WHERE user_id = $1 AND status = 'scheduled' AND start_time >= $2`
	var total int
	if err := r.db.QueryRowContext(ctx, q, userID, from).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
