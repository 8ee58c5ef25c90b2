package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
)

const DefaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// A failed key set fetch is reported to callers for this long before the
// next attempt.
const jwksRetryBackoff = 30 * time.Second

var errIdentityClosed = errors.New("identity provider closed")

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// ExternalProfile is what an identity provider vouches for.
type ExternalProfile struct {
	Email string
	Name  string
}

type IdentityProvider interface {
	// Profile exchanges a provider credential for the holder's profile.
	Profile(ctx context.Context, credential string) (*ExternalProfile, error)
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleIdentity verifies Google ID tokens against Google's published keys.
// The key set is fetched on first use and refreshed in the background.
type GoogleIdentity struct {
	clientID   string
	jwksURL    string
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger

	fetch singleflight.Group

	mu       sync.Mutex
	jwks     *keyfunc.JWKS
	fetchErr error
	failedAt time.Time
	closed   bool
}

func NewGoogleIdentity(clientID, jwksURL string, logger *slog.Logger) *GoogleIdentity {
	if jwksURL == "" {
		jwksURL = DefaultGoogleJWKSURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleIdentity{
		clientID:   clientID,
		jwksURL:    jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock is for tests.
func (g *GoogleIdentity) WithClock(now func() time.Time) *GoogleIdentity {
	g.now = now
	return g
}

func (g *GoogleIdentity) Profile(ctx context.Context, credential string) (*ExternalProfile, error) {
	if g.clientID == "" {
		return nil, fmt.Errorf("google sign-in is not configured: %w", ErrUpstream)
	}
	jwks, err := g.keys()
	if err != nil {
		g.logger.Error("google JWKS fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var claims googleClaims
	_, err = jwt.ParseWithClaims(credential, &claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(g.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) && !errors.Is(err, keyfunc.ErrKIDNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		g.logger.Warn("google credential rejected", "error", err)
		return nil, auth.ErrInvalidToken
	}
	if !validIssuer(claims.Issuer) {
		g.logger.Warn("google credential has unexpected issuer", "issuer", claims.Issuer)
		return nil, auth.ErrInvalidToken
	}
	if claims.Email == "" || !claims.EmailVerified {
		return nil, ErrProfileFetch
	}
	return &ExternalProfile{Email: claims.Email, Name: strings.TrimSpace(claims.Name)}, nil
}

// Close stops the background key refresh.
func (g *GoogleIdentity) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.jwks != nil {
		g.jwks.EndBackground()
		g.jwks = nil
	}
}

// keys returns the cached key set, fetching it on first use. The fetch runs
// without holding mu and concurrent callers share one request.
func (g *GoogleIdentity) keys() (*keyfunc.JWKS, error) {
	if jwks, err := g.cached(); jwks != nil || err != nil {
		return jwks, err
	}

	v, err, _ := g.fetch.Do(g.jwksURL, func() (any, error) {
		if jwks, err := g.cached(); jwks != nil || err != nil {
			return jwks, err
		}

		jwks, err := keyfunc.Get(g.jwksURL, keyfunc.Options{
			Client:            g.httpClient,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				g.logger.Warn("google JWKS refresh failed", "error", err)
			},
		})

		g.mu.Lock()
		defer g.mu.Unlock()
		switch {
		case err != nil:
			g.fetchErr, g.failedAt = err, time.Now()
			return nil, err
		case g.closed:
			jwks.EndBackground()
			return nil, errIdentityClosed
		}
		g.jwks, g.fetchErr = jwks, nil
		return jwks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*keyfunc.JWKS), nil
}

// cached returns the key set, or the last fetch error while it is still within
// the retry backoff. Both nil means a fetch is due.
func (g *GoogleIdentity) cached() (*keyfunc.JWKS, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.closed:
		return nil, errIdentityClosed
	case g.jwks != nil:
		return g.jwks, nil
	case g.fetchErr != nil && time.Since(g.failedAt) < jwksRetryBackoff:
		return nil, g.fetchErr
	}
	return nil, nil
}

func validIssuer(iss string) bool {
	for _, allowed := range googleIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}
