package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/events/eventstest"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories/repotest"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
)

const frontendURL = "https://app.hirehub.test"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeIdentity struct {
	profile *services.ExternalProfile
	err     error
}

func (f *fakeIdentity) Profile(context.Context, string) (*services.ExternalProfile, error) {
	return f.profile, f.err
}

type testEnv struct {
	store    *repotest.Store
	clock    *clock
	tokens   *auth.TokenService
	hasher   *auth.PBKDF2Hasher
	events   *eventstest.Recorder
	identity *fakeIdentity
	links    *services.SignupLinkService
	auth     *services.AuthService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	c := &clock{now: time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)}
	store := repotest.NewStore().WithClock(c.Now)
	tokens, err := auth.NewTokenService("services-test-secret", auth.WithClock(c.Now))
	require.NoError(t, err)

	env := &testEnv{
		store:    store,
		clock:    c,
		tokens:   tokens,
		hasher:   auth.NewPBKDF2Hasher(auth.MinIterations),
		events:   &eventstest.Recorder{},
		identity: &fakeIdentity{},
	}
	env.links = services.NewSignupLinkService(store.SignupLinks(), frontendURL, c.Now, quietLogger())
	env.auth = services.NewAuthService(services.AuthDeps{
		Users:    store.Users(),
		Links:    env.links,
		Hasher:   env.hasher,
		Tokens:   tokens,
		Tx:       store.Transactor(),
		Events:   env.events,
		Identity: env.identity,
		Logger:   quietLogger(),
	})
	return env
}

// seedUser stores a user with the given password and returns it.
func (e *testEnv) seedUser(t *testing.T, email, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	u := &models.User{Email: email, FullName: "Seed " + string(role), Password: hash, Role: role}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

// newLink creates a link through the service and returns its token.
func (e *testEnv) newLink(t *testing.T, creatorID int64, role models.Role, email *string) string {
	t.Helper()
	resp, err := e.links.CreateLink(context.Background(), creatorID, &dto.CreateSignupLinkRequest{Role: string(role), Email: email})
	require.NoError(t, err)
	token := resp.URL[len(frontendURL+"/register?signup_token="):]
	require.Len(t, token, models.SignupTokenLength)
	return token
}

func strPtr(s string) *string { return &s }
