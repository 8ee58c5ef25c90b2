package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type flakyDialer struct {
	failures int
	calls    int
}

func (d *flakyDialer) DialAndSend(...*gomail.Message) error {
	d.calls++
	if d.calls <= d.failures {
		return errors.New("connection refused")
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSMTPSender_RetriesUntilSuccess(t *testing.T) {
	d := &flakyDialer{failures: 2}
	s := NewSMTPSender(d, "noreply@hirehub.test", quietLogger()).WithBackoff(time.Millisecond)

	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", HTML: "<p>hi</p>"}))
	assert.Equal(t, 3, d.calls)
}

func TestSMTPSender_GivesUpAfterThreeAttempts(t *testing.T) {
	d := &flakyDialer{failures: 10}
	s := NewSMTPSender(d, "noreply@hirehub.test", quietLogger()).WithBackoff(time.Millisecond)

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 3, d.calls)
}

func TestNew_WithoutHostLogsOnly(t *testing.T) {
	s := New(Config{}, quietLogger())
	_, ok := s.(*LogSender)
	require.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), Message{To: "a@example.com"}))
}

func TestTemplates_EscapeInput(t *testing.T) {
	msg, err := WelcomeEmail("a@example.com", "<b>Ann</b>", "https://app.test/verify-email?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.To)
	assert.Contains(t, msg.HTML, "&lt;b&gt;Ann&lt;/b&gt;")
	assert.Contains(t, msg.HTML, `href="https://app.test/verify-email?token=abc"`)

	msg, err = PasswordResetEmail("b@example.com", "Bo", "https://app.test/reset?token=xyz")
	require.NoError(t, err)
	assert.Equal(t, "Reset your HireHub password", msg.Subject)
	assert.Contains(t, msg.HTML, "https://app.test/reset?token=xyz")
}
