package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
)

// RateLimit allows limit requests per IP in a sliding one-minute window.
func RateLimit(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error:   true,
				Kind:    "RateLimited",
				Message: "Too many requests, please try again later",
			})
		},
	})
}
