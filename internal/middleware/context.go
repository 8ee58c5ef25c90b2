package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

const (
	tokenLocal = "auth_token"
	userLocal  = "current_user"
)

// CurrentUser returns the identity Authenticate attached, or nil for an
// anonymous request.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// CurrentUserID reports the authenticated user's id.
func CurrentUserID(c *fiber.Ctx) (int64, bool) {
	if user := CurrentUser(c); user != nil {
		return user.ID, true
	}
	return 0, false
}

func setCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userLocal, user)
}
