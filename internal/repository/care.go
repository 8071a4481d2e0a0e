package repository

import (
	"context"
	"time"

	"carevault/internal/model"
)

// MedicationRepository defines data access for medications. All operations
// are scoped to the owning user; a row that exists but belongs to somebody
// else behaves as absent (sql.ErrNoRows).
type MedicationRepository interface {
	Create(ctx context.Context, m *model.Medication) (*model.Medication, error)
	FindByID(ctx context.Context, id, userID string) (*model.Medication, error)
	ListForUser(ctx context.Context, userID string) ([]model.Medication, error)
	Update(ctx context.Context, m *model.Medication) (*model.Medication, error)
	Delete(ctx context.Context, id, userID string) error
	ListActive(ctx context.Context, userID string, limit int) ([]model.Medication, error)
	CountActive(ctx context.Context, userID string) (int, error)
}

// SymptomRange bounds a symptom listing; zero times mean unbounded.
type SymptomRange struct {
	Start time.Time
	End   time.Time
	Limit int
}

// SymptomRepository defines data access for symptom entries.
type SymptomRepository interface {
	Create(ctx context.Context, s *model.Symptom) (*model.Symptom, error)
	ListForUser(ctx context.Context, userID string, r SymptomRange) ([]model.Symptom, error)
	// Stats aggregates per symptom name since the given time, most frequent first.
	Stats(ctx context.Context, userID string, since time.Time) ([]model.SymptomStat, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Symptom, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// AppointmentFilter narrows an appointment listing. Zero value lists all.
type AppointmentFilter struct {
	Start  time.Time
	End    time.Time
	Status model.AppointmentStatus
}

// AppointmentRepository defines data access for appointments, scoped to the
// owning user like MedicationRepository.
type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) (*model.Appointment, error)
	FindByID(ctx context.Context, id, userID string) (*model.Appointment, error)
	ListForUser(ctx context.Context, userID string, f AppointmentFilter) ([]model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) (*model.Appointment, error)
	UpdateReminders(ctx context.Context, id, userID string, prefs model.ReminderPrefs) (*model.Appointment, error)
	Delete(ctx context.Context, id, userID string) error
	// ListUpcoming returns scheduled appointments within [from, to), soonest first.
	ListUpcoming(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.Appointment, error)
	CountUpcoming(ctx context.Context, userID string, from time.Time) (int, error)
	// ListDueReminders returns appointments across all users that start in
	// [from, to), want a reminder, and have not had one sent yet.
	ListDueReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// PostRepository defines data access for forum posts and comments.
type PostRepository interface {
	CreatePost(ctx context.Context, p *model.Post) (*model.Post, error)
	// ListPosts returns posts newest first, each with its comments loaded.
	ListPosts(ctx context.Context) ([]model.Post, error)
	// AddComment appends a comment; returns sql.ErrNoRows if the post is absent.
	AddComment(ctx context.Context, c *model.Comment) (*model.Comment, error)
}
