package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"carevault/internal/http/middleware"
	"carevault/internal/model"
	"carevault/internal/repository"
	"carevault/internal/service"
)

type registerRequest struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        model.Role `json:"role"`
	PhoneNumber string     `json:"phoneNumber"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// Register creates an account and returns a token for it.
func Register(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Role == "" {
			req.Role = model.RolePatient
		}
		res, err := svc.Register(c.UserContext(), service.RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Role:        req.Role,
			PhoneNumber: req.PhoneNumber,
			DateOfBirth: req.DateOfBirth,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token.
func Login(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// Me returns the authenticated user's profile.
func Me(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := svc.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	}
}

type profileRequest struct {
	FirstName        string                 `json:"firstName"`
	LastName         string                 `json:"lastName"`
	PhoneNumber      string                 `json:"phoneNumber"`
	EmergencyContact model.EmergencyContact `json:"emergencyContact"`
}

// UpdateProfile applies the mutable profile fields of the caller.
func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		user, err := svc.UpdateProfile(c.UserContext(), middleware.UserID(c), repository.UserProfileUpdate{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			PhoneNumber:      req.PhoneNumber,
			EmergencyContact: req.EmergencyContact,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the caller's password after verifying the current one.
func ChangePassword(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req changePasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := svc.ChangePassword(c.UserContext(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "password updated"})
	}
}

// CareTeam lists active clinicians and admins.
func CareTeam(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		team, err := svc.CareTeam(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"careTeam": team})
	}
}
