package service

import (
	"context"
	"time"

	"carevault/internal/model"
	"carevault/internal/repository"
)

const (
	dashboardItemLimit     = 5
	dashboardUpcomingSpan  = 7 * 24 * time.Hour
	dashboardSymptomLookup = 30 * 24 * time.Hour
)

// DashboardCounts are the headline totals on the dashboard.
type DashboardCounts struct {
	Documents            int `json:"documents"`
	ActiveMedications    int `json:"active_medications"`
	SymptomsLast30Days   int `json:"symptoms_last_30_days"`
	UpcomingAppointments int `json:"upcoming_appointments"`
}

// Dashboard is the aggregated home view for one user.
type Dashboard struct {
	Counts               DashboardCounts     `json:"counts"`
	UpcomingAppointments []model.Appointment `json:"upcoming_appointments"`
	ActiveMedications    []model.Medication  `json:"active_medications"`
	RecentSymptoms       []model.Symptom     `json:"recent_symptoms"`
	RecentDocuments      []model.Document    `json:"recent_documents"`
}

// DashboardService assembles the per-user overview.
type DashboardService interface {
	Overview(ctx context.Context, userID string) (*Dashboard, error)
}

type dashboardService struct {
	documents    repository.DocumentRepository
	medications  repository.MedicationRepository
	symptoms     repository.SymptomRepository
	appointments repository.AppointmentRepository
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(
	documents repository.DocumentRepository,
	medications repository.MedicationRepository,
	symptoms repository.SymptomRepository,
	appointments repository.AppointmentRepository,
) DashboardService {
	return &dashboardService{
		documents:    documents,
		medications:  medications,
		symptoms:     symptoms,
		appointments: appointments,
	}
}

func (s *dashboardService) Overview(ctx context.Context, userID string) (*Dashboard, error) {
	now := time.Now().UTC()

	upcoming, err := s.appointments.ListUpcoming(ctx, userID, now, now.Add(dashboardUpcomingSpan), dashboardItemLimit)
	if err != nil {
		return nil, err
	}
	meds, err := s.medications.ListActive(ctx, userID, dashboardItemLimit)
	if err != nil {
		return nil, err
	}
	symptoms, err := s.symptoms.ListRecent(ctx, userID, dashboardItemLimit)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListRecentForOwner(ctx, userID, dashboardItemLimit)
	if err != nil {
		return nil, err
	}

	var counts DashboardCounts
	if counts.Documents, err = s.documents.CountForOwner(ctx, userID); err != nil {
		return nil, err
	}
	if counts.ActiveMedications, err = s.medications.CountActive(ctx, userID); err != nil {
		return nil, err
	}
	if counts.SymptomsLast30Days, err = s.symptoms.CountSince(ctx, userID, now.Add(-dashboardSymptomLookup)); err != nil {
		return nil, err
	}
	if counts.UpcomingAppointments, err = s.appointments.CountUpcoming(ctx, userID, now); err != nil {
		return nil, err
	}

	return &Dashboard{
		Counts:               counts,
		UpcomingAppointments: upcoming,
		ActiveMedications:    meds,
		RecentSymptoms:       symptoms,
		RecentDocuments:      docs,
	}, nil
}
