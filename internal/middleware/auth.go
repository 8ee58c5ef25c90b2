package middleware

import (
	"context"
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
)

// UserFinder resolves the subject of an access token.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate verifies the bearer access token and attaches its user to the
// request. On a public route a missing or bad token leaves the request
// anonymous; otherwise it is answered with 401.
func Authenticate(tokens *auth.TokenService, users UserFinder, public bool) fiber.Handler {
	reject := func(c *fiber.Ctx) error {
		if public {
			return c.Next()
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error:   true,
			Kind:    "Unauthorized",
			Message: "Authentication credentials were not provided or are invalid",
		})
	}

	return jwtware.New(jwtware.Config{
		KeyFunc:    tokens.Keyfunc,
		ContextKey: tokenLocal,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenLocal).(*jwt.Token)
			if !ok || token == nil {
				return reject(c)
			}
			userID, err := tokens.ParseAccess(token.Raw)
			if err != nil {
				return reject(c)
			}
			user, err := users.FindByID(c.UserContext(), userID)
			if err != nil {
				// A lookup failure on a public route degrades to anonymous.
				if public || errors.Is(err, repositories.ErrNotFound) {
					return reject(c)
				}
				return err
			}
			setCurrentUser(c, user)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return reject(c)
		},
	})
}
