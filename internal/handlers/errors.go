package handlers

import (
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/validator"
)

type errorKind struct {
	status  int
	kind    string
	message string
}

// Every error a client can correct maps to a fixed status and message.
var errorKinds = []struct {
	err  error
	kind errorKind
}{
	{services.ErrInvalidCredentials, errorKind{fiber.StatusUnauthorized, "InvalidCredentials", "Unable to log in with provided credentials"}},
	{services.ErrUnauthorized, errorKind{fiber.StatusUnauthorized, "Unauthorized", "Authentication credentials were not provided or are invalid"}},
	{auth.ErrInvalidToken, errorKind{fiber.StatusUnauthorized, "InvalidToken", "Token is invalid"}},
	{auth.ErrTokenExpired, errorKind{fiber.StatusUnauthorized, "TokenExpired", "Token has expired"}},
	{services.ErrInvalidRole, errorKind{fiber.StatusBadRequest, "InvalidRole", "The requested role is not allowed"}},
	{services.ErrTokenNotValid, errorKind{fiber.StatusBadRequest, "TokenNotValid", "Signup token is not valid"}},
	{services.ErrSignupLinkExpired, errorKind{fiber.StatusBadRequest, "TokenExpired", "Signup token has expired"}},
	{services.ErrTokenAlreadyUsed, errorKind{fiber.StatusBadRequest, "TokenAlreadyUsed", "Signup token has already been used"}},
	{services.ErrSignupEmailMismatch, errorKind{fiber.StatusBadRequest, "SignupEmailMismatch", "Email does not match the invitation"}},
	{services.ErrProfileFetch, errorKind{fiber.StatusBadRequest, "ProfileFetchError", "Could not read an email address from the identity provider"}},
	{services.ErrPasswordTooShort, errorKind{fiber.StatusBadRequest, "ValidationError", "Password must be at least 8 characters"}},
	{services.ErrUserNotFound, errorKind{fiber.StatusNotFound, "UserNotFound", "User not found"}},
	{services.ErrUserAlreadyExists, errorKind{fiber.StatusConflict, "UserAlreadyExists", "A user with this email already exists"}},
	{services.ErrDuplicateToken, errorKind{fiber.StatusConflict, "DuplicateToken", "Could not issue a unique signup token, please retry"}},
	{services.ErrUpstream, errorKind{fiber.StatusBadGateway, "UpstreamError", "The identity provider is unavailable"}},
}

func classify(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind, true
		}
	}
	return errorKind{}, false
}

// fail writes the response for a known client error kind. Everything else is
// returned unchanged for ErrorHandler.
func fail(c *fiber.Ctx, err error) error {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   true,
			Kind:    "ValidationError",
			Message: "Request validation failed",
			Fields:  verr.Errors,
		})
	}
	if k, ok := classify(err); ok && k.status < fiber.StatusInternalServerError {
		return c.Status(k.status).JSON(dto.ErrorResponse{Error: true, Kind: k.kind, Message: k.message})
	}
	return err
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Kind: "ValidationError", Message: "Invalid request body",
	})
}

// ErrorHandler is the app-wide fiber error handler. Server errors are logged
// and reported to Sentry. Only known kinds keep their message.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		kind := "InternalError"
		message := "Internal server error"

		var fe *fiber.Error
		k, known := classify(err)
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
			kind = "HTTPError"
		case known:
			code, kind, message = k.status, k.kind, k.message
		}

		if code >= fiber.StatusInternalServerError {
			attrs := []any{
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			}
			if id, ok := middleware.CurrentUserID(c); ok {
				attrs = append(attrs, "user_id", id)
			}
			logging.LogError(c.UserContext(), logger, "unhandled server error", err, attrs...)
			if hub := sentryfiber.GetHubFromContext(c); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
			if !known {
				kind = "InternalError"
				message = "Internal server error"
			}
		}

		return c.Status(code).JSON(dto.ErrorResponse{Error: true, Kind: kind, Message: message})
	}
}
