package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/validator"
)

const forgotPasswordMessage = "If an account exists for this email, a password reset link has been sent"

type AuthHandler struct {
	authService *services.AuthService
	links       *services.SignupLinkService
	validate    *validator.Validator
}

func NewAuthHandler(authService *services.AuthService, links *services.SignupLinkService, validate *validator.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, links: links, validate: validate}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) GoogleAuth(c *fiber.Ctx) error {
	var req dto.GoogleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	resp, err := h.authService.GoogleAuth(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	if err := h.authService.VerifyEmail(c.UserContext(), req.EmailToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Email verified"})
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	err := h.authService.ForgotPassword(c.UserContext(), req.Email)
	if err != nil && !errors.Is(err, services.ErrUserNotFound) {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: forgotPasswordMessage})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := h.validate.Validate(&req); err != nil {
		return fail(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.PasswordResetToken, req.Password); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password has been reset"})
}

func (h *AuthHandler) ValidateSignupToken(c *fiber.Ctx) error {
	info, err := h.links.Validate(c.UserContext(), c.Params("token"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(info)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	resp, err := h.authService.Me(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}
