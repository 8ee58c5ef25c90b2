package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
)

type SignupLinkService struct {
	links       repositories.SignupLinkRepository
	frontendURL string
	now         func() time.Time
	logger      *slog.Logger
}

func NewSignupLinkService(links repositories.SignupLinkRepository, frontendURL string, now func() time.Time, logger *slog.Logger) *SignupLinkService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignupLinkService{
		links:       links,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         now,
		logger:      logger,
	}
}

// CreateLink stores a new invitation valid for 24 hours and returns the
// registration URL carrying its token.
func (s *SignupLinkService) CreateLink(ctx context.Context, creatorID int64, req *dto.CreateSignupLinkRequest) (*dto.SignupLinkURLResponse, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	link := &models.SignupLink{
		Role:        role,
		ExpiresAt:   s.now().Add(models.SignupLinkTTL),
		CreatedByID: creatorID,
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		email := models.NormalizeEmail(*req.Email)
		link.Email = &email
	}

	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateToken
		}
		return nil, err
	}

	metrics.RecordSignupLinkCreated(string(role))
	s.logger.Info("signup link created", "link_id", link.ID, "role", role, "created_by", creatorID)
	return &dto.SignupLinkURLResponse{URL: s.registerURL(link.TokenValue())}, nil
}

// Validate reports the role and email a token grants without consuming it.
func (s *SignupLinkService) Validate(ctx context.Context, token string) (*dto.SignupTokenInfo, error) {
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTokenNotValid
		}
		return nil, err
	}
	if err := unredeemable(link, s.now()); err != nil {
		return nil, err
	}
	return &dto.SignupTokenInfo{Role: link.Role, Email: link.Email}, nil
}

// Redeem binds the link to userID. Of any number of concurrent calls for one
// token at most one succeeds.
func (s *SignupLinkService) Redeem(ctx context.Context, token string, userID int64) error {
	now := s.now()
	ok, err := s.links.Redeem(ctx, token, userID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			metrics.RecordRedemption("already_used")
			return ErrTokenAlreadyUsed
		}
		return err
	}
	if ok {
		metrics.RecordRedemption(metrics.OutcomeSuccess)
		return nil
	}

	var reason error
	link, err := s.links.FindByToken(ctx, token)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		reason = ErrTokenNotValid
	case err != nil:
		return err
	default:
		reason = unredeemable(link, now)
		if reason == nil {
			// Redeemable on re-read: another caller's redemption was rolled back.
			reason = ErrTokenAlreadyUsed
		}
	}
	metrics.RecordRedemption(redemptionLabel(reason))
	return reason
}

// unredeemable reports why link cannot be redeemed at now, or nil. Expiry is
// checked before use.
func unredeemable(link *models.SignupLink, now time.Time) error {
	if link.IsExpired(now) {
		return ErrSignupLinkExpired
	}
	if link.IsUsed() {
		return ErrTokenAlreadyUsed
	}
	return nil
}

// GetAll lists the links creatorID made, newest first.
func (s *SignupLinkService) GetAll(ctx context.Context, creatorID int64) ([]dto.SignupLinkResponse, error) {
	links, err := s.links.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SignupLinkResponse, 0, len(links))
	for i := range links {
		out = append(out, dto.NewSignupLinkResponse(&links[i]))
	}
	return out, nil
}

func (s *SignupLinkService) registerURL(token string) string {
	return fmt.Sprintf("%s/register?signup_token=%s", s.frontendURL, url.QueryEscape(token))
}

func redemptionLabel(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotValid):
		return "not_valid"
	case errors.Is(err, ErrSignupLinkExpired):
		return "expired"
	default:
		return "already_used"
	}
}
