package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carevault/internal/http/middleware"
	"carevault/internal/model"
	"carevault/internal/repository"
	"carevault/internal/service"
)

type appointmentRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Type        model.AppointmentType   `json:"type"`
	Provider    string                  `json:"provider"`
	Location    string                  `json:"location"`
	StartTime   time.Time               `json:"startTime"`
	EndTime     time.Time               `json:"endTime"`
	Status      model.AppointmentStatus `json:"status"`
	Reminders   model.ReminderPrefs     `json:"reminders"`
	Notes       string                  `json:"notes"`
}

func (r appointmentRequest) toInput() service.AppointmentInput {
	return service.AppointmentInput{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Provider:    r.Provider,
		Location:    r.Location,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Status:      r.Status,
		Reminders:   r.Reminders,
		Notes:       r.Notes,
	}
}

// CreateAppointment schedules an appointment for the caller.
func CreateAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req appointmentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		appt, err := svc.Create(c.UserContext(), middleware.UserID(c), req.toInput())
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(appt)
	}
}

// ListAppointments returns the caller's appointments, optionally bounded by
// ?start=, ?end= (RFC 3339) and ?status=.
func ListAppointments(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f repository.AppointmentFilter
		if raw := c.Query("start"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "start and end must be RFC 3339 timestamps")
			}
			f.Start = t
		}
		if raw := c.Query("end"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "start and end must be RFC 3339 timestamps")
			}
			f.End = t
		}
		f.Status = model.AppointmentStatus(c.Query("status"))

		appts, err := svc.List(c.UserContext(), middleware.UserID(c), f)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"appointments": appts, "total": len(appts)})
	}
}

// GetAppointment returns one appointment owned by the caller.
func GetAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		appt, err := svc.Get(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(appt)
	}
}

// UpdateAppointment rewrites an appointment owned by the caller.
func UpdateAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req appointmentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		appt, err := svc.Update(c.UserContext(), id, middleware.UserID(c), req.toInput())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(appt)
	}
}

type reminderRequest struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// UpdateAppointmentReminders replaces the reminder channel preferences.
func UpdateAppointmentReminders(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req reminderRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		appt, err := svc.UpdateReminders(c.UserContext(), id, middleware.UserID(c), req.Email, req.SMS)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(appt)
	}
}

// DeleteAppointment removes an appointment owned by the caller.
func DeleteAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, middleware.UserID(c)); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SweepReminders triggers a reminder delivery pass immediately instead of
// waiting for the background ticker. Admin only.
func SweepReminders(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sent, err := svc.SendDueReminders(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"sent": sent})
	}
}
