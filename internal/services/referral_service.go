package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
)

const (
	ReferralCodeLength = 8
	referralAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referralAttempts   = 5
)

// Subscriber is the subscription side of the event bus.
type Subscriber interface {
	Subscribe(kind events.Kind, h events.Handler)
}

// ReferralService hands every new user a referral code of their own.
type ReferralService struct {
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewReferralService(users repositories.UserRepository, logger *slog.Logger) *ReferralService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferralService{users: users, logger: logger}
}

func (s *ReferralService) Register(bus Subscriber) {
	bus.Subscribe(events.KindReferralCode, s.handle)
}

func (s *ReferralService) handle(ctx context.Context, e events.Event) error {
	if e.User.ReferralCode != nil {
		return nil
	}
	return s.Assign(ctx, e.User.ID)
}

// Assign generates codes until one is free. Users that already have a code
// keep it.
func (s *ReferralService) Assign(ctx context.Context, userID int64) error {
	for attempt := 1; attempt <= referralAttempts; attempt++ {
		code, err := NewReferralCode()
		if err != nil {
			return err
		}
		err = s.users.SetReferralCode(ctx, userID, code)
		if err == nil {
			s.logger.Info("referral code assigned", "user_id", userID)
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
		s.logger.Debug("referral code collision", "user_id", userID, "attempt", attempt)
	}
	return fmt.Errorf("no free referral code after %d attempts", referralAttempts)
}

func NewReferralCode() (string, error) {
	limit := big.NewInt(int64(len(referralAlphabet)))
	b := make([]byte, ReferralCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		b[i] = referralAlphabet[n.Int64()]
	}
	return string(b), nil
}
