package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"carevault/internal/model"
	"carevault/internal/repository/mocks"
)

func validMedicationInput() MedicationInput {
	return MedicationInput{
		Name:      "Lisinopril",
		Dosage:    "10mg",
		Frequency: "once daily",
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMedicationService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     func() MedicationInput
		setupMock func(repo *mocks.MockMedicationRepository)
		wantErr   error
	}{
		{
			name:  "defaults status to active",
			input: validMedicationInput,
			setupMock: func(repo *mocks.MockMedicationRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(m *model.Medication) bool {
					return m.UserID == "user-1" && m.Status == model.MedicationActive
				})).Return(&model.Medication{ID: "med-1", Status: model.MedicationActive}, nil)
			},
		},
		{
			name: "keeps explicit status",
			input: func() MedicationInput {
				in := validMedicationInput()
				in.Status = model.MedicationCompleted
				return in
			},
			setupMock: func(repo *mocks.MockMedicationRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(m *model.Medication) bool {
					return m.Status == model.MedicationCompleted
				})).Return(&model.Medication{ID: "med-1"}, nil)
			},
		},
		{
			name: "missing dosage",
			input: func() MedicationInput {
				in := validMedicationInput()
				in.Dosage = ""
				return in
			},
			setupMock: func(repo *mocks.MockMedicationRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "end date before start date",
			input: func() MedicationInput {
				in := validMedicationInput()
				end := in.StartDate.Add(-24 * time.Hour)
				in.EndDate = &end
				return in
			},
			setupMock: func(repo *mocks.MockMedicationRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "unknown status",
			input: func() MedicationInput {
				in := validMedicationInput()
				in.Status = "paused-forever"
				return in
			},
			setupMock: func(repo *mocks.MockMedicationRepository) {},
			wantErr:   ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockMedicationRepository)
			tt.setupMock(repo)
			svc := NewMedicationService(repo)

			med, err := svc.Create(context.Background(), "user-1", tt.input())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, med)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, med)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestMedicationService_Update(t *testing.T) {
	t.Run("requires status", func(t *testing.T) {
		repo := new(mocks.MockMedicationRepository)
		svc := NewMedicationService(repo)

		in := validMedicationInput()
		_, err := svc.Update(context.Background(), "med-1", "user-1", in)

		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "Update")
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		repo := new(mocks.MockMedicationRepository)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
		svc := NewMedicationService(repo)

		in := validMedicationInput()
		in.Status = model.MedicationActive
		_, err := svc.Update(context.Background(), "med-1", "user-2", in)

		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestMedicationService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(mocks.MockMedicationRepository)
		repo.On("Delete", mock.Anything, "med-1", "user-1").Return(nil)
		svc := NewMedicationService(repo)

		assert.NoError(t, svc.Delete(context.Background(), "med-1", "user-1"))
		repo.AssertExpectations(t)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		repo := new(mocks.MockMedicationRepository)
		repo.On("Delete", mock.Anything, "med-1", "user-2").Return(sql.ErrNoRows)
		svc := NewMedicationService(repo)

		assert.ErrorIs(t, svc.Delete(context.Background(), "med-1", "user-2"), ErrNotFound)
	})

	t.Run("repo error passes through", func(t *testing.T) {
		repo := new(mocks.MockMedicationRepository)
		repo.On("Delete", mock.Anything, "med-1", "user-1").Return(errors.New("db down"))
		svc := NewMedicationService(repo)

		err := svc.Delete(context.Background(), "med-1", "user-1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
