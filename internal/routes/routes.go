package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

// Deps carries everything the route table needs.
type Deps struct {
	Tokens      *auth.TokenService
	Users       middleware.UserFinder
	Auth        *handlers.AuthHandler
	SignupLinks *handlers.SignupLinkHandler
	Health      *handlers.HealthHandler

	// Per-IP requests per minute. Zero disables the limiter.
	GlobalRateLimit int
	AuthRateLimit   int
}

func Setup(app *fiber.App, d Deps) {
	if d.GlobalRateLimit > 0 {
		app.Use(middleware.RateLimit(d.GlobalRateLimit))
	}

	app.Get("/health", d.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	optional := middleware.Authenticate(d.Tokens, d.Users, true)
	required := middleware.Authenticate(d.Tokens, d.Users, false)

	// Auth: 10 req/min per IP on top of the global limit
	ra := app.Group("/rest-auth")
	if d.AuthRateLimit > 0 {
		ra.Use(middleware.RateLimit(d.AuthRateLimit))
	}
	ra.Post("/login", optional, d.Auth.Login)
	ra.Post("/register", optional, d.Auth.Register)
	ra.Post("/verify-email", optional, d.Auth.VerifyEmail)
	ra.Post("/reset-password", optional, d.Auth.ResetPassword)
	ra.Post("/forgot-password", optional, d.Auth.ForgotPassword)
	ra.Post("/google", optional, d.Auth.GoogleAuth)
	ra.Get("/validate-signup-token/:token", optional, d.Auth.ValidateSignupToken)
	ra.Get("/user", required, d.Auth.Me)

	admin := app.Group("/admin", required, middleware.RequireRoles(models.RoleAdmin))
	admin.Post("/signup-link", d.SignupLinks.Create)
	admin.Get("/signup-links/all", d.SignupLinks.GetAll)
}
