package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"carevault/internal/auth"
	"carevault/internal/model"
)

const (
	// UserIDLocalKey is the key used to store the authenticated user id in
	// Fiber's context locals.
	UserIDLocalKey = "user_id"
	// RoleLocalKey is the key used to store the authenticated user's role.
	RoleLocalKey = "user_role"
)

// Auth verifies the Bearer token and stores the caller's identity in
// context locals. Requests without a valid token get a 401.
func Auth(verifier *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDLocalKey, claims.UserID)
		c.Locals(RoleLocalKey, claims.Role)
		return c.Next()
	}
}

// RequireRole allows the request through only when the authenticated role is
// one of the given set. Must run after Auth.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(RoleLocalKey).(model.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}

// UserID returns the authenticated user id stored by Auth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
