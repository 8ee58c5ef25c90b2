package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of every token the service issues.
const TokenTTL = 48 * time.Hour

// Token purposes, carried in the "typ" claim.
const (
	PurposeAccess        = "access"
	PurposeVerifyEmail   = "verify_email"
	PurposePasswordReset = "password_reset"
)

const (
	claimPurpose = "typ"
	claimUserID  = "user_id"
	claimEmail   = "email"
)

var signingMethod = jwt.SigningMethodHS256

// TokenService issues and verifies HS256-signed, time-limited bearer tokens.
// It keeps no server-side state: a token is valid until it expires.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	s := &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs claims with an expiry TokenTTL from now. iat and exp set by the
// caller are overwritten.
func (s *TokenService) Issue(claims map[string]any) (string, error) {
	now := s.now()
	mc := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(TokenTTL).Unix()

	signed, err := jwt.NewWithClaims(signingMethod, mc).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the caller claims without
// the registered iat/exp entries.
func (s *TokenService) Verify(token string) (map[string]any, error) {
	parsed, err := jwt.Parse(token, s.Keyfunc,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims := make(map[string]any, len(mc))
	for k, v := range mc {
		if k == "iat" || k == "exp" {
			continue
		}
		claims[k] = v
	}
	return claims, nil
}

// Keyfunc resolves the signing key for jwt parsers, rejecting any algorithm
// other than HS256. The HTTP gate parses with it so both paths share one key.
func (s *TokenService) Keyfunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != signingMethod.Alg() {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}

func (s *TokenService) IssueAccess(userID int64) (string, error) {
	return s.Issue(map[string]any{claimPurpose: PurposeAccess, claimUserID: userID})
}

func (s *TokenService) IssueEmailVerification(email string) (string, error) {
	return s.Issue(map[string]any{claimPurpose: PurposeVerifyEmail, claimEmail: email})
}

func (s *TokenService) IssuePasswordReset(userID int64) (string, error) {
	return s.Issue(map[string]any{claimPurpose: PurposePasswordReset, claimUserID: userID})
}

// ParseAccess returns the user id of a session token.
func (s *TokenService) ParseAccess(token string) (int64, error) {
	claims, err := s.verifyPurpose(token, PurposeAccess)
	if err != nil {
		return 0, err
	}
	return UserIDClaim(claims)
}

// ParseEmailVerification returns the email a verification token was minted for.
func (s *TokenService) ParseEmailVerification(token string) (string, error) {
	claims, err := s.verifyPurpose(token, PurposeVerifyEmail)
	if err != nil {
		return "", err
	}
	email, ok := claims[claimEmail].(string)
	if !ok || email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

// ParsePasswordReset returns the user id a reset token was minted for.
func (s *TokenService) ParsePasswordReset(token string) (int64, error) {
	claims, err := s.verifyPurpose(token, PurposePasswordReset)
	if err != nil {
		return 0, err
	}
	return UserIDClaim(claims)
}

func (s *TokenService) verifyPurpose(token, purpose string) (map[string]any, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if !HasPurpose(claims, purpose) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HasPurpose reports whether claims carry the given typ.
func HasPurpose(claims map[string]any, purpose string) bool {
	typ, _ := claims[claimPurpose].(string)
	return typ == purpose
}

// UserIDClaim extracts a positive user_id claim. JSON decoding yields float64,
// so integral floats are accepted.
func UserIDClaim(claims map[string]any) (int64, error) {
	var id int64
	switch v := claims[claimUserID].(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, ErrInvalidToken
		}
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, ErrInvalidToken
		}
		id = n
	default:
		return 0, ErrInvalidToken
	}
	if id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
