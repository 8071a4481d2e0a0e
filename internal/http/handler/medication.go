package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carevault/internal/http/middleware"
	"carevault/internal/model"
	"carevault/internal/service"
)

type medicationRequest struct {
	Name         string                 `json:"name"`
	Dosage       string                 `json:"dosage"`
	Frequency    string                 `json:"frequency"`
	StartDate    time.Time              `json:"startDate"`
	EndDate      *time.Time             `json:"endDate"`
	Instructions string                 `json:"instructions"`
	PrescribedBy string                 `json:"prescribedBy"`
	Status       model.MedicationStatus `json:"status"`
	Notes        string                 `json:"notes"`
}

func (r medicationRequest) toInput() service.MedicationInput {
	return service.MedicationInput{
		Name:         r.Name,
		Dosage:       r.Dosage,
		Frequency:    r.Frequency,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Instructions: r.Instructions,
		PrescribedBy: r.PrescribedBy,
		Status:       r.Status,
		Notes:        r.Notes,
	}
}

// CreateMedication records a new medication for the caller.
func CreateMedication(svc service.MedicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req medicationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		med, err := svc.Create(c.UserContext(), middleware.UserID(c), req.toInput())
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(med)
	}
}

// ListMedications returns all of the caller's medications.
func ListMedications(svc service.MedicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		meds, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"medications": meds, "total": len(meds)})
	}
}

// GetMedication returns one medication owned by the caller.
func GetMedication(svc service.MedicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		med, err := svc.Get(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(med)
	}
}

// UpdateMedication rewrites a medication owned by the caller.
func UpdateMedication(svc service.MedicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req medicationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		med, err := svc.Update(c.UserContext(), id, middleware.UserID(c), req.toInput())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(med)
	}
}

// DeleteMedication removes a medication owned by the caller.
func DeleteMedication(svc service.MedicationService) fiber.Handler {
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
