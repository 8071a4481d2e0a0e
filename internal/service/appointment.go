package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"carevault/internal/model"
	"carevault/internal/notify"
	"carevault/internal/repository"
)

// reminderWindow is how far ahead the reminder sweep looks.
const reminderWindow = 24 * time.Hour

// AppointmentInput carries the writable fields of an appointment.
type AppointmentInput struct {
	Title       string
	Description string
	Type        model.AppointmentType
	Provider    string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Status      model.AppointmentStatus
	Reminders   model.ReminderPrefs
	Notes       string
}

// AppointmentService covers appointment scheduling and reminder delivery.
type AppointmentService interface {
	Create(ctx context.Context, userID string, in AppointmentInput) (*model.Appointment, error)
	Get(ctx context.Context, id, userID string) (*model.Appointment, error)
	List(ctx context.Context, userID string, f repository.AppointmentFilter) ([]model.Appointment, error)
	Update(ctx context.Context, id, userID string, in AppointmentInput) (*model.Appointment, error)
	// UpdateReminders replaces the reminder channel preferences and clears
	// any sent marker so the next sweep re-delivers.
	UpdateReminders(ctx context.Context, id, userID string, email, sms bool) (*model.Appointment, error)
	Delete(ctx context.Context, id, userID string) error

	// SendDueReminders delivers reminders for appointments starting within
	// the next day and marks them sent. Returns how many were delivered.
	SendDueReminders(ctx context.Context) (int, error)
}

type appointmentService struct {
	repo     repository.AppointmentRepository
	users    repository.UserRepository
	notifier notify.Notifier
}

// NewAppointmentService constructs a new AppointmentService.
func NewAppointmentService(repo repository.AppointmentRepository, users repository.UserRepository, notifier notify.Notifier) AppointmentService {
	return &appointmentService{repo: repo, users: users, notifier: notifier}
}

func (in AppointmentInput) validate() error {
	if in.Title == "" || in.Provider == "" {
		return fmt.Errorf("%w: title and provider are required", ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown appointment type %q", ErrValidation, in.Type)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end times are required", ErrValidation)
	}
	if !in.EndTime.After(in.StartTime) {
		return fmt.Errorf("%w: end time must follow start time", ErrValidation)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	return nil
}

func (s *appointmentService) Create(ctx context.Context, userID string, in AppointmentInput) (*model.Appointment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.AppointmentScheduled
	}
	return s.repo.Create(ctx, &model.Appointment{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Provider:    in.Provider,
		Location:    in.Location,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      status,
		Reminders:   model.ReminderPrefs{Email: in.Reminders.Email, SMS: in.Reminders.SMS},
		Notes:       in.Notes,
	})
}

func (s *appointmentService) Get(ctx context.Context, id, userID string) (*model.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, userID string, f repository.AppointmentFilter) ([]model.Appointment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.repo.ListForUser(ctx, userID, f)
}

func (s *appointmentService) Update(ctx context.Context, id, userID string, in AppointmentInput) (*model.Appointment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	appt, err := s.repo.Update(ctx, &model.Appointment{
		ID:          id,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Provider:    in.Provider,
		Location:    in.Location,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      in.Status,
		Notes:       in.Notes,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) UpdateReminders(ctx context.Context, id, userID string, email, sms bool) (*model.Appointment, error) {
	appt, err := s.repo.UpdateReminders(ctx, id, userID, model.ReminderPrefs{Email: email, SMS: sms})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *appointmentService) SendDueReminders(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	due, err := s.repo.ListDueReminders(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, appt := range due {
		user, err := s.users.FindByID(ctx, appt.UserID)
		if err != nil {
			logReminderFailure(appt.ID, err)
			continue
		}
		if err := s.deliver(ctx, &appt, user); err != nil {
			logReminderFailure(appt.ID, err)
			continue
		}
		sentAt := now
		prefs := appt.Reminders
		prefs.SentAt = &sentAt
		if _, err := s.repo.UpdateReminders(ctx, appt.ID, appt.UserID, prefs); err != nil {
			logReminderFailure(appt.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *appointmentService) deliver(ctx context.Context, appt *model.Appointment, user *model.User) error {
	when := appt.StartTime.Format("Mon Jan 2 15:04 MST")
	body := fmt.Sprintf("Reminder: %s with %s at %s on %s.", appt.Title, appt.Provider, appt.Location, when)
	if appt.Reminders.Email {
		if err := s.notifier.SendEmail(ctx, user.Email, "Upcoming appointment: "+appt.Title, body); err != nil {
			return err
		}
	}
	if appt.Reminders.SMS && user.PhoneNumber != "" {
		if err := s.notifier.SendSMS(ctx, user.PhoneNumber, body); err != nil {
			return err
		}
	}
	return nil
}

func logReminderFailure(appointmentID string, err error) {
	entry := map[string]any{
		"ts":             time.Now().UTC().Format(time.RFC3339Nano),
		"level":          "error",
		"component":      "appointment_service",
		"event":          "reminder_failed",
		"appointment_id": appointmentID,
		"error":          err.Error(),
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
