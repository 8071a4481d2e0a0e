package postgres

import (
	"context"
	"database/sql"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// MedicationPostgres is a PostgreSQL implementation of repository.MedicationRepository.
// All queries are scoped to the owning user; a row owned by somebody else
// behaves as absent.
type MedicationPostgres struct {
	db *sql.DB
}

// NewMedicationPostgres creates a new MedicationPostgres repository.
func NewMedicationPostgres(db *sql.DB) *MedicationPostgres {
	return &MedicationPostgres{db: db}
}

var _ repository.MedicationRepository = (*MedicationPostgres)(nil)

const medicationColumns = `
	id, user_id, name, dosage, frequency, start_date, end_date,
	instructions, prescribed_by, status, notes, created_at, updated_at
`

func scanMedication(row interface{ Scan(...any) error }) (*model.Medication, error) {
	var m model.Medication
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dosage,
		&m.Frequency,
		&m.StartDate,
		&m.EndDate,
		&m.Instructions,
		&m.PrescribedBy,
		&m.Status,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a medication row and returns the stored record.
func (r *MedicationPostgres) Create(ctx context.Context, m *model.Medication) (*model.Medication, error) {
	q := `
		INSERT INTO medications (user_id, name, dosage, frequency, start_date, end_date, instructions, prescribed_by, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + medicationColumns
	row := r.db.QueryRowContext(ctx, q,
		m.UserID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate,
		m.Instructions, m.PrescribedBy, m.Status, m.Notes,
	)
	return scanMedication(row)
}

// FindByID fetches a medication owned by the user.
func (r *MedicationPostgres) FindByID(ctx context.Context, id, userID string) (*model.Medication, error) {
	q := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1 AND user_id = $2`
	return scanMedication(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListForUser returns the user's medications, newest start date first.
func (r *MedicationPostgres) ListForUser(ctx context.Context, userID string) ([]model.Medication, error) {
	q := `SELECT ` + medicationColumns + ` FROM medications WHERE user_id = $1 ORDER BY start_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMedications(rows)
}

func collectMedications(rows *sql.Rows) ([]model.Medication, error) {
	items := make([]model.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the mutable fields of a medication owned by m.UserID.
func (r *MedicationPostgres) Update(ctx context.Context, m *model.Medication) (*model.Medication, error) {
	q := `
		UPDATE medications
		SET name = $3, dosage = $4, frequency = $5, start_date = $6, end_date = $7,
		    instructions = $8, prescribed_by = $9, status = $10, notes = $11, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + medicationColumns
	row := r.db.QueryRowContext(ctx, q,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate,
		m.Instructions, m.PrescribedBy, m.Status, m.Notes,
	)
	return scanMedication(row)
}

// Delete removes a medication owned by the user. Returns sql.ErrNoRows when
// no owned row matched.
func (r *MedicationPostgres) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM medications WHERE id = $1 AND user_id = $2`
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

// ListActive returns the user's newest active medications.
func (r *MedicationPostgres) ListActive(ctx context.Context, userID string, limit int) ([]model.Medication, error) {
	q := `SELECT ` + medicationColumns + `
		FROM medications
		WHERE user_id = $1 AND status = 'active'
		ORDER BY start_date DESC, id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMedications(rows)
}

// CountActive returns how many active medications the user has.
func (r *MedicationPostgres) CountActive(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM medications WHERE user_id = $1 AND status = 'active'`
	var total int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
