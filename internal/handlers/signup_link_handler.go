package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/validator"
)

// SignupLinkHandler serves the admin endpoints for invitation links.
type SignupLinkHandler struct {
	links    *services.SignupLinkService
	validate *validator.Validator
}

func NewSignupLinkHandler(links *services.SignupLinkService, validate *validator.Validator) *SignupLinkHandler {
	return &SignupLinkHandler{links: links, validate: validate}
}

func (h *SignupLinkHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, services.ErrUnauthorized)
	}

	var req dto.CreateSignupLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	resp, err := h.links.CreateLink(c.UserContext(), userID, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *SignupLinkHandler) GetAll(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, services.ErrUnauthorized)
	}

	links, err := h.links.GetAll(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(links)
}
