package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/mailer"
)

// NotificationListener turns account events into emails.
type NotificationListener struct {
	sender      mailer.Sender
	frontendURL string
	logger      *slog.Logger
}

func NewNotificationListener(sender mailer.Sender, frontendURL string, logger *slog.Logger) *NotificationListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationListener{
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (l *NotificationListener) Register(bus Subscriber) {
	bus.Subscribe(events.KindWelcomeEmail, l.welcome)
	bus.Subscribe(events.KindPasswordReset, l.passwordReset)
}

func (l *NotificationListener) welcome(ctx context.Context, e events.Event) error {
	msg, err := mailer.WelcomeEmail(e.User.Email, displayName(e.User.FullName, e.User.Email), l.link("/verify-email", e.VerificationToken))
	if err != nil {
		return err
	}
	if err := l.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send welcome email to user %d: %w", e.User.ID, err)
	}
	return nil
}

func (l *NotificationListener) passwordReset(ctx context.Context, e events.Event) error {
	msg, err := mailer.PasswordResetEmail(e.User.Email, displayName(e.User.FullName, e.User.Email), l.link("/reset-password", e.ResetToken))
	if err != nil {
		return err
	}
	if err := l.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send password reset email to user %d: %w", e.User.ID, err)
	}
	return nil
}

func (l *NotificationListener) link(path, token string) string {
	return l.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func displayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	return strings.SplitN(email, "@", 2)[0]
}
