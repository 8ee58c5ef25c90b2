package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/validator"
)

const (
	globalRateLimit = 60
	authRateLimit   = 10
	shutdownTimeout = 10 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	defer pgLogHandler.Stop()
	logger := slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.LogLevel),
		pgLogHandler,
	))
	slog.SetDefault(logger)

	logging.StartCleanup(ctx, db, cfg.LogRetention)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	srv, err := newServer(cfg, db, logger)
	if err != nil {
		return err
	}
	defer srv.close()

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errc <- srv.app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		slog.Error("server failed to start", "error", err)
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	if err := srv.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

type server struct {
	app      *fiber.App
	bus      *events.Bus
	identity *services.GoogleIdentity
}

// close stops the background workers after the HTTP server has drained.
func (s *server) close() {
	s.bus.Close()
	s.identity.Close()
}

func newServer(cfg *config.Config, db *gorm.DB, logger *slog.Logger) (*server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	users := repositories.NewUserRepository(db)
	linkRepo := repositories.NewSignupLinkRepository(db)

	bus := events.NewBus(cfg.EventWorkers, cfg.EventQueueLength, logger)
	services.NewReferralService(users, logger).Register(bus)
	sender := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger)
	services.NewNotificationListener(sender, cfg.FrontendURL, logger).Register(bus)

	identity := services.NewGoogleIdentity(cfg.GoogleClientID, cfg.GoogleJWKSURL, logger)
	links := services.NewSignupLinkService(linkRepo, cfg.FrontendURL, time.Now, logger)
	authService := services.NewAuthService(services.AuthDeps{
		Users:    users,
		Links:    links,
		Hasher:   auth.NewPBKDF2Hasher(cfg.PasswordIterations),
		Tokens:   tokens,
		Tx:       database.NewTransactor(db),
		Events:   bus,
		Identity: identity,
		Logger:   logger,
	})

	v := validator.New()

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, routes.Deps{
		Tokens:          tokens,
		Users:           users,
		Auth:            handlers.NewAuthHandler(authService, links, v),
		SignupLinks:     handlers.NewSignupLinkHandler(links, v),
		Health:          handlers.NewHealthHandler(pinger(db)),
		GlobalRateLimit: globalRateLimit,
		AuthRateLimit:   authRateLimit,
	})

	return &server{app: app, bus: bus, identity: identity}, nil
}

func pinger(db *gorm.DB) handlers.PingFunc {
	return func(ctx context.Context) error {
		if err := database.Ping(ctx, db); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Warn("health check ping failed", "error", err)
			}
			return err
		}
		return nil
	}
}
