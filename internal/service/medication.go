package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// MedicationInput carries the writable fields of a medication.
type MedicationInput struct {
	Name         string
	Dosage       string
	Frequency    string
	StartDate    time.Time
	EndDate      *time.Time
	Instructions string
	PrescribedBy string
	Status       model.MedicationStatus
	Notes        string
}

// MedicationService covers the medication tracking use cases.
type MedicationService interface {
	Create(ctx context.Context, userID string, in MedicationInput) (*model.Medication, error)
	Get(ctx context.Context, id, userID string) (*model.Medication, error)
	List(ctx context.Context, userID string) ([]model.Medication, error)
	Update(ctx context.Context, id, userID string, in MedicationInput) (*model.Medication, error)
	Delete(ctx context.Context, id, userID string) error
}

type medicationService struct {
	repo repository.MedicationRepository
}

// NewMedicationService constructs a new MedicationService.
func NewMedicationService(repo repository.MedicationRepository) MedicationService {
	return &medicationService{repo: repo}
}

func (in MedicationInput) validate() error {
	if in.Name == "" || in.Dosage == "" || in.Frequency == "" {
		return fmt.Errorf("%w: name, dosage and frequency are required", ErrValidation)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	return nil
}

func (s *medicationService) Create(ctx context.Context, userID string, in MedicationInput) (*model.Medication, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.MedicationActive
	}
	return s.repo.Create(ctx, &model.Medication{
		UserID:       userID,
		Name:         in.Name,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Instructions: in.Instructions,
		PrescribedBy: in.PrescribedBy,
		Status:       status,
		Notes:        in.Notes,
	})
}

func (s *medicationService) Get(ctx context.Context, id, userID string) (*model.Medication, error) {
	med, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return med, nil
}

func (s *medicationService) List(ctx context.Context, userID string) ([]model.Medication, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *medicationService) Update(ctx context.Context, id, userID string, in MedicationInput) (*model.Medication, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	med, err := s.repo.Update(ctx, &model.Medication{
		ID:           id,
		UserID:       userID,
		Name:         in.Name,
		Dosage:       in.Dosage,
		Frequency:    in.Frequency,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Instructions: in.Instructions,
		PrescribedBy: in.PrescribedBy,
		Status:       in.Status,
		Notes:        in.Notes,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return med, nil
}

func (s *medicationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
