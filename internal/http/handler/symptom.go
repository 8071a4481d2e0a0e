package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"carevault/internal/http/middleware"
	"carevault/internal/repository"
	"carevault/internal/service"
)

type symptomRequest struct {
	Name            string    `json:"name"`
	Intensity       int       `json:"intensity"`
	Notes           string    `json:"notes"`
	Location        string    `json:"location"`
	Triggers        []string  `json:"triggers"`
	DurationMinutes int       `json:"durationMinutes"`
	RecordedAt      time.Time `json:"recordedAt"`
}

// RecordSymptom stores one symptom entry for the caller.
func RecordSymptom(svc service.SymptomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req symptomRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		sym, err := svc.Record(c.UserContext(), middleware.UserID(c), service.SymptomInput{
			Name:            req.Name,
			Intensity:       req.Intensity,
			Notes:           req.Notes,
			Location:        req.Location,
			Triggers:        req.Triggers,
			DurationMinutes: req.DurationMinutes,
			RecordedAt:      req.RecordedAt,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sym)
	}
}

func symptomRangeFromQuery(c *fiber.Ctx) (repository.SymptomRange, error) {
	var r repository.SymptomRange
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return r, err
		}
		r.Start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return r, err
		}
		r.End = t
	}
	r.Limit = c.QueryInt("limit")
	return r, nil
}

// ListSymptoms returns the caller's symptom history, optionally bounded by
// ?start=, ?end= (RFC 3339) and ?limit=.
func ListSymptoms(svc service.SymptomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := symptomRangeFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "start and end must be RFC 3339 timestamps")
		}
		syms, err := svc.List(c.UserContext(), middleware.UserID(c), r)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"symptoms": syms, "total": len(syms)})
	}
}

// SymptomStats aggregates the caller's entries per symptom name over the
// trailing ?days= window.
func SymptomStats(svc service.SymptomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext(), middleware.UserID(c), c.QueryInt("days"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"stats": stats})
	}
}

// ExportSymptoms streams the caller's symptom history as a CSV download.
func ExportSymptoms(svc service.SymptomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := symptomRangeFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "start and end must be RFC 3339 timestamps")
		}
		out, err := svc.ExportCSV(c.UserContext(), middleware.UserID(c), r)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="symptoms.csv"`)
		return c.Send(out)
	}
}
