package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories"
)

const (
	MinPasswordLength = 8

	// Stored in place of a hash for accounts that sign in through a provider.
	unusablePasswordPrefix = "!"
)

// Transactor runs fn in one database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuthDeps struct {
	Users    repositories.UserRepository
	Links    *SignupLinkService
	Hasher   auth.PasswordHasher
	Tokens   *auth.TokenService
	Tx       Transactor
	Events   events.Publisher
	Identity IdentityProvider
	Logger   *slog.Logger
}

type AuthService struct {
	users    repositories.UserRepository
	links    *SignupLinkService
	hasher   auth.PasswordHasher
	tokens   *auth.TokenService
	tx       Transactor
	events   events.Publisher
	identity IdentityProvider
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d AuthDeps) *AuthService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    d.Users,
		links:    d.Links,
		hasher:   d.Hasher,
		tokens:   d.Tokens,
		tx:       d.Tx,
		events:   d.Events,
		identity: d.Identity,
		logger:   logger,
	}
}

// Login answers unknown emails and wrong passwords identically.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		s.burnVerify(req.Password)
		metrics.RecordLogin(models.LoginMethodEmail, metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	if !s.passwordMatches(user, req.Password) {
		metrics.RecordLogin(models.LoginMethodEmail, metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	metrics.RecordLogin(models.LoginMethodEmail, metrics.OutcomeSuccess)
	return s.session(user)
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (resp *dto.AuthResponse, err error) {
	defer func() { metrics.RecordRegistration(models.LoginMethodEmail, metrics.Outcome(err)) }()

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	email := models.NormalizeEmail(req.Email)

	if err := s.checkInvitation(ctx, role, email, req.SignupToken); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:       email,
		FullName:    strings.TrimSpace(req.FullName),
		Password:    hash,
		Role:        role,
		LoginMethod: models.LoginMethodEmail,
	}
	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		s.applyReferral(ctx, user, code)
	}

	if err := s.createUser(ctx, user, req.SignupToken); err != nil {
		return nil, err
	}

	verifyToken, err := s.tokens.IssueEmailVerification(user.Email)
	if err != nil {
		return nil, err
	}
	resetToken, err := s.tokens.IssuePasswordReset(user.ID)
	if err != nil {
		return nil, err
	}
	for _, kind := range []events.Kind{events.KindReferralCode, events.KindWelcomeEmail} {
		s.publish(ctx, events.Event{Kind: kind, User: *user, VerificationToken: verifyToken, ResetToken: resetToken})
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.session(user)
}

// GoogleAuth signs in an existing account by email or registers a new,
// pre-verified one under the same role rules as Register.
func (s *AuthService) GoogleAuth(ctx context.Context, req *dto.GoogleAuthRequest) (*dto.AuthResponse, error) {
	profile, err := s.identity.Profile(ctx, req.Token)
	if err != nil {
		metrics.RecordLogin(models.LoginMethodGoogle, metrics.OutcomeFailure)
		return nil, err
	}
	email := models.NormalizeEmail(profile.Email)
	if email == "" {
		metrics.RecordLogin(models.LoginMethodGoogle, metrics.OutcomeFailure)
		return nil, ErrProfileFetch
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.RecordLogin(models.LoginMethodGoogle, metrics.OutcomeSuccess)
		return s.session(existing)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	resp, err := s.registerExternal(ctx, email, profile.Name, req)
	metrics.RecordRegistration(models.LoginMethodGoogle, metrics.Outcome(err))
	return resp, err
}

func (s *AuthService) registerExternal(ctx context.Context, email, name string, req *dto.GoogleAuthRequest) (*dto.AuthResponse, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	if err := s.checkInvitation(ctx, role, email, req.SignupToken); err != nil {
		return nil, err
	}

	password, err := unusablePassword()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:       email,
		FullName:    name,
		Password:    password,
		Role:        role,
		IsVerified:  true,
		LoginMethod: models.LoginMethodGoogle,
	}
	if err := s.createUser(ctx, user, req.SignupToken); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Kind: events.KindReferralCode, User: *user})
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role, "login_method", user.LoginMethod)
	return s.session(user)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	email, err := s.tokens.ParseEmailVerification(token)
	if err != nil {
		return auth.ErrInvalidToken
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return auth.ErrInvalidToken
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	return s.users.MarkVerified(ctx, user.ID)
}

// ForgotPassword returns ErrUserNotFound for unknown emails. Callers facing
// the public must not reveal that distinction.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := s.tokens.IssuePasswordReset(user.ID)
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{Kind: events.KindPasswordReset, User: *user, ResetToken: token})
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	userID, err := s.tokens.ParsePasswordReset(token)
	if err != nil {
		return auth.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return auth.ErrInvalidToken
		}
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// Me returns the current state of the authenticated user.
func (s *AuthService) Me(ctx context.Context, user *models.User) (*dto.UserEnvelope, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	fresh, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &dto.UserEnvelope{Data: dto.NewUserResponse(fresh)}, nil
}

// checkInvitation enforces that privileged roles come with a signup link,
// and that a supplied link matches the requested role and email.
func (s *AuthService) checkInvitation(ctx context.Context, role models.Role, email, token string) error {
	if token == "" {
		if role.RequiresInvitation() {
			return ErrInvalidRole
		}
		return nil
	}

	info, err := s.links.Validate(ctx, token)
	if err != nil {
		return err
	}
	if info.Role != role {
		return ErrInvalidRole
	}
	if info.Email != nil && models.NormalizeEmail(*info.Email) != email {
		return ErrSignupEmailMismatch
	}
	return nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrUserAlreadyExists
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return err
	}
}

// createUser inserts the user and, when a token is given, redeems it in the
// same transaction. Losing the redemption leaves no user behind.
func (s *AuthService) createUser(ctx context.Context, user *models.User, signupToken string) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrUserAlreadyExists
			}
			return err
		}
		if signupToken == "" {
			return nil
		}
		return s.links.Redeem(ctx, signupToken, user.ID)
	})
}

func (s *AuthService) applyReferral(ctx context.Context, user *models.User, code string) {
	referrer, err := s.users.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("unknown referral code ignored", "code", code, "email", user.Email)
		} else {
			s.logger.Error("referral lookup failed", "code", code, "error", err)
		}
		return
	}
	user.ReferredByID = &referrer.ID
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "kind", event.Kind, "user_id", event.User.ID, "error", err)
	}
}

func (s *AuthService) passwordMatches(user *models.User, password string) bool {
	if strings.HasPrefix(user.Password, unusablePasswordPrefix) {
		s.burnVerify(password)
		return false
	}
	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		s.logger.Warn("stored password hash unusable", "user_id", user.ID, "error", err)
		return false
	}
	return ok
}

// burnVerify spends the same work as a real verification so response time
// does not reveal whether an account exists.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("hirehub-timing-equalizer")
		if err != nil {
			s.logger.Error("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *AuthService) session(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{AccessToken: token, Data: dto.NewUserResponse(user)}, nil
}

func unusablePassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return unusablePasswordPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
