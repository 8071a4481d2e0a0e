package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// defaultStatsWindow is the lookback applied when a stats request gives no
// explicit number of days.
const defaultStatsWindow = 30 * 24 * time.Hour

// SymptomInput carries the writable fields of a symptom entry.
type SymptomInput struct {
	Name            string
	Intensity       int
	Notes           string
	Location        string
	Triggers        []string
	DurationMinutes int
	RecordedAt      time.Time
}

// SymptomService covers symptom recording, history, aggregation and export.
type SymptomService interface {
	Record(ctx context.Context, userID string, in SymptomInput) (*model.Symptom, error)
	List(ctx context.Context, userID string, r repository.SymptomRange) ([]model.Symptom, error)

	// Stats aggregates entries per symptom name over the trailing window.
	// days <= 0 falls back to the default window.
	Stats(ctx context.Context, userID string, days int) ([]model.SymptomStat, error)

	// ExportCSV renders the user's history in the given range as CSV.
	ExportCSV(ctx context.Context, userID string, r repository.SymptomRange) ([]byte, error)
}

type symptomService struct {
	repo repository.SymptomRepository
}

// NewSymptomService constructs a new SymptomService.
func NewSymptomService(repo repository.SymptomRepository) SymptomService {
	return &symptomService{repo: repo}
}

func (s *symptomService) Record(ctx context.Context, userID string, in SymptomInput) (*model.Symptom, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Intensity < 1 || in.Intensity > 10 {
		return nil, fmt.Errorf("%w: intensity must be between 1 and 10", ErrValidation)
	}
	if in.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}
	recordedAt := in.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, &model.Symptom{
		UserID:          userID,
		Name:            in.Name,
		Intensity:       in.Intensity,
		Notes:           in.Notes,
		Location:        in.Location,
		Triggers:        in.Triggers,
		DurationMinutes: in.DurationMinutes,
		RecordedAt:      recordedAt,
	})
}

func (s *symptomService) List(ctx context.Context, userID string, r repository.SymptomRange) ([]model.Symptom, error) {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return nil, fmt.Errorf("%w: range end precedes start", ErrValidation)
	}
	return s.repo.ListForUser(ctx, userID, r)
}

func (s *symptomService) Stats(ctx context.Context, userID string, days int) ([]model.SymptomStat, error) {
	window := defaultStatsWindow
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	return s.repo.Stats(ctx, userID, time.Now().UTC().Add(-window))
}

func (s *symptomService) ExportCSV(ctx context.Context, userID string, r repository.SymptomRange) ([]byte, error) {
	entries, err := s.List(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"recorded_at", "name", "intensity", "location", "duration_minutes", "triggers", "notes"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		duration := ""
		if e.DurationMinutes > 0 {
			duration = strconv.Itoa(e.DurationMinutes)
		}
		rec := []string{
			e.RecordedAt.UTC().Format(time.RFC3339),
			e.Name,
			strconv.Itoa(e.Intensity),
			e.Location,
			duration,
			strings.Join(e.Triggers, "; "),
			e.Notes,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
