package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
)

// PingFunc reports whether the database is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping PingFunc
	now  func() time.Time
}

func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping, now: time.Now}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		DB:        "ok",
	}
	if err := h.ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.DB = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
