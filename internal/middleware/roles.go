package middleware

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

// RequireRoles admits only users whose role is in roles. It must run after
// Authenticate; anonymous requests are refused too.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !slices.Contains(roles, user.Role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Kind:    "Forbidden",
				Message: "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}
