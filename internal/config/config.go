package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Token signing secret (shared by access, verification and reset tokens)
	JWTSecret string

	// Password hashing
	PasswordIterations int

	// Identity provider
	GoogleClientID string
	GoogleJWKSURL  string

	// Links embedded in signup URLs and emails
	FrontendURL string

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// Observability
	LogLevel         string
	LogRetention     time.Duration
	SentryDSN        string
	AppEnv           string
	EventWorkers     int
	EventQueueLength int

	// Server
	Port        string
	CORSOrigins string
}

// Load resolves configuration from, in order of precedence: environment
// variables, command-line flags and the optional YAML file named by --config,
// then built-in defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if flags != nil {
		if path, _ := flags.GetString("config"); path != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	l := loader{k: k}
	cfg := &Config{
		DBHost:     l.str("DB_HOST", "db.host", "localhost"),
		DBPort:     l.str("DB_PORT", "db.port", "5432"),
		DBUser:     l.str("DB_USER", "db.user", "postgres"),
		DBPassword: l.str("DB_PASSWORD", "db.password", ""),
		DBName:     l.str("DB_NAME", "db.name", "hirehub"),
		DBSSLMode:  l.str("DB_SSLMODE", "db.sslmode", "disable"),

		JWTSecret: l.str("JWT_SECRET", "jwt.secret", ""),

		PasswordIterations: l.integer("PASSWORD_ITERATIONS", "password.iterations", 120000),

		GoogleClientID: l.str("GOOGLE_CLIENT_ID", "google.client_id", ""),
		GoogleJWKSURL:  l.str("GOOGLE_JWKS_URL", "google.jwks_url", "https://www.googleapis.com/oauth2/v3/certs"),

		FrontendURL: l.str("FRONTEND_URL", "frontend_url", "http://localhost:3000"),

		SMTPHost:     l.str("SMTP_HOST", "smtp.host", ""),
		SMTPPort:     l.integer("SMTP_PORT", "smtp.port", 587),
		SMTPUser:     l.str("SMTP_USER", "smtp.user", ""),
		SMTPPassword: l.str("SMTP_PASSWORD", "smtp.password", ""),
		MailFrom:     l.str("MAIL_FROM", "smtp.from", "HireHub <no-reply@hirehub.local>"),

		LogLevel:         l.str("LOG_LEVEL", "log.level", "info"),
		LogRetention:     l.duration("LOG_RETENTION", "log.retention", 30*24*time.Hour),
		SentryDSN:        l.str("SENTRY_DSN", "sentry.dsn", ""),
		AppEnv:           l.str("APP_ENV", "app_env", "development"),
		EventWorkers:     l.integer("EVENT_WORKERS", "events.workers", 4),
		EventQueueLength: l.integer("EVENT_QUEUE_LENGTH", "events.queue_length", 256),

		Port:        l.str("PORT", "port", "8080"),
		CORSOrigins: l.str("CORS_ORIGINS", "cors_origins", "*"),
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.EventWorkers < 1 {
		errs = append(errs, errors.New("EVENT_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

type loader struct {
	k *koanf.Koanf
}

func (l loader) str(env, key, fallback string) string {
	if val := os.Getenv(env); val != "" {
		return val
	}
	if l.k.Exists(key) {
		if val := l.k.String(key); val != "" {
			return val
		}
	}
	return fallback
}

func (l loader) integer(env, key string, fallback int) int {
	n, err := strconv.Atoi(l.str(env, key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return n
}

func (l loader) duration(env, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(l.str(env, key, fallback.String()))
	if err != nil {
		return fallback
	}
	return d
}
