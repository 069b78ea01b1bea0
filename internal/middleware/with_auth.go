package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-overview-api/internal/utils"
)

// UserID returns the authenticated user id, or zero for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// RequireUser rejects requests that reached it without an authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return c.Next()
	}
}

// WithUser wraps handler so it only runs for authenticated users.
func WithUser(handler func(c *fiber.Ctx, userID uint) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return handler(c, userID)
	}
}
