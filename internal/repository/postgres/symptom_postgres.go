package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// SymptomPostgres is a PostgreSQL implementation of repository.SymptomRepository.
type SymptomPostgres struct {
	db *sql.DB
}

// NewSymptomPostgres creates a new SymptomPostgres repository.
func NewSymptomPostgres(db *sql.DB) *SymptomPostgres {
	return &SymptomPostgres{db: db}
}

var _ repository.SymptomRepository = (*SymptomPostgres)(nil)

const symptomColumns = `
	id, user_id, name, intensity, notes, location, triggers,
	duration_minutes, recorded_at, created_at
`

func scanSymptom(row interface{ Scan(...any) error }) (*model.Symptom, error) {
	var (
		s        model.Symptom
		triggers []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Intensity,
		&s.Notes,
		&s.Location,
		&triggers,
		&s.DurationMinutes,
		&s.RecordedAt,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(triggers, &s.Triggers); err != nil {
		return nil, fmt.Errorf("decode triggers: %w", err)
	}
	return &s, nil
}

// Create inserts a symptom row and returns the stored record.
func (r *SymptomPostgres) Create(ctx context.Context, s *model.Symptom) (*model.Symptom, error) {
	triggers, err := json.Marshal(s.Triggers)
	if err != nil {
		return nil, fmt.Errorf("encode triggers: %w", err)
	}

	q := `
		INSERT INTO symptoms (user_id, name, intensity, notes, location, triggers, duration_minutes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + symptomColumns
	row := r.db.QueryRowContext(ctx, q,
		s.UserID, s.Name, s.Intensity, s.Notes, s.Location, triggers, s.DurationMinutes, s.RecordedAt,
	)
	return scanSymptom(row)
}

// ListForUser returns symptom entries newest first, optionally bounded by a
// recorded-at range.
func (r *SymptomPostgres) ListForUser(ctx context.Context, userID string, sr repository.SymptomRange) ([]model.Symptom, error) {
	q := `SELECT ` + symptomColumns + ` FROM symptoms WHERE user_id = $1`
	args := []any{userID}
	if !sr.Start.IsZero() && !sr.End.IsZero() {
		args = append(args, sr.Start, sr.End)
		q += fmt.Sprintf(" AND recorded_at >= $%d AND recorded_at <= $%d", len(args)-1, len(args))
	}
	q += ` ORDER BY recorded_at DESC, id DESC`
	if sr.Limit > 0 {
		args = append(args, sr.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymptoms(rows)
}

func collectSymptoms(rows *sql.Rows) ([]model.Symptom, error) {
	items := make([]model.Symptom, 0)
	for rows.Next() {
		s, err := scanSymptom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Stats aggregates intensity per symptom name since the given time,
// most frequent first.
func (r *SymptomPostgres) Stats(ctx context.Context, userID string, since time.Time) ([]model.SymptomStat, error) {
	const q = `
		SELECT name, AVG(intensity), MAX(intensity), MIN(intensity), COUNT(*)
		FROM symptoms
		WHERE user_id = $1 AND recorded_at >= $2
		GROUP BY name
		ORDER BY COUNT(*) DESC, name
	`
	rows, err := r.db.QueryContext(ctx, q, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]model.SymptomStat, 0)
	for rows.Next() {
		var st model.SymptomStat
		if err := rows.Scan(&st.Name, &st.AverageIntensity, &st.MaxIntensity, &st.MinIntensity, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// ListRecent returns the user's latest symptom entries.
func (r *SymptomPostgres) ListRecent(ctx context.Context, userID string, limit int) ([]model.Symptom, error) {
	return r.ListForUser(ctx, userID, repository.SymptomRange{Limit: limit})
}

// CountSince returns how many entries the user recorded since the given time.
func (r *SymptomPostgres) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM symptoms WHERE user_id = $1 AND recorded_at >= $2`
	var total int
	if err := r.db.QueryRowContext(ctx, q, userID, since).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
