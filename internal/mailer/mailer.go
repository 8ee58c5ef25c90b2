// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"gopkg.in/gomail.v2"
)

const (
	maxAttempts = 3
	baseBackoff = 500 * time.Millisecond
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dialer is the part of gomail.Dialer the mailer needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// New returns an SMTP sender, or a log-only sender when no host is configured.
func New(cfg Config, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, emails will only be logged")
		return &LogSender{logger: logger}
	}
	return NewSMTPSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, logger)
}

type SMTPSender struct {
	dialer Dialer
	from   string
	base   time.Duration
	logger *slog.Logger
}

func NewSMTPSender(dialer Dialer, from string, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{dialer: dialer, from: from, base: baseBackoff, logger: logger}
}

// WithBackoff overrides the first retry delay.
func (s *SMTPSender) WithBackoff(base time.Duration) *SMTPSender {
	s.base = base
	return s
}

// Send makes up to three delivery attempts with exponential backoff.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	attempt := 0
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(s.base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.dialer.DialAndSend(m); err != nil {
			s.logger.Warn("email delivery failed", "to", msg.To, "subject", msg.Subject, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (not sent)", "to", msg.To, "subject", msg.Subject)
	return nil
}
