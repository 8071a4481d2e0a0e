package handler

import (
	"github.com/gofiber/fiber/v2"

	"carevault/internal/http/middleware"
	"carevault/internal/service"
)

// GetDashboard returns the caller's aggregated overview.
func GetDashboard(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		overview, err := svc.Overview(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(overview)
	}
}
