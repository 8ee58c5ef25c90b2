package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/repositories/repotest"
)

type gateFixture struct {
	tokens *auth.TokenService
	store  *repotest.Store
	admin  *models.User
	mentor *models.User
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	tokens, err := auth.NewTokenService("gate-secret")
	require.NoError(t, err)
	store := repotest.NewStore()
	f := &gateFixture{tokens: tokens, store: store}

	f.admin = &models.User{Email: "admin@example.com", Role: models.RoleAdmin}
	f.mentor = &models.User{Email: "mentor@example.com", Role: models.RoleMentor}
	require.NoError(t, store.Users().Create(context.Background(), f.admin))
	require.NoError(t, store.Users().Create(context.Background(), f.mentor))
	return f
}

func (f *gateFixture) bearer(t *testing.T, userID int64) string {
	t.Helper()
	token, err := f.tokens.IssueAccess(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *gateFixture) app(public bool, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{middleware.Authenticate(f.tokens, f.store.Users(), public)}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(user.Email)
	})
	app.Get("/", handlers...)
	return app
}

func call(t *testing.T, app *fiber.App, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthenticate_Protected(t *testing.T) {
	f := newGateFixture(t)
	app := f.app(false)

	status, body := call(t, app, f.bearer(t, f.mentor.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "mentor@example.com", body)

	verify, err := f.tokens.IssueEmailVerification("mentor@example.com")
	require.NoError(t, err)
	other, err := auth.NewTokenService("other-secret")
	require.NoError(t, err)
	foreign, err := other.IssueAccess(f.mentor.ID)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":        "",
		"not bearer":     "Token abc",
		"garbage":        "Bearer abc.def.ghi",
		"wrong purpose":  "Bearer " + verify,
		"foreign secret": "Bearer " + foreign,
		"deleted user":   f.bearer(t, 999),
	} {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, app, header)
			assert.Equal(t, http.StatusUnauthorized, status)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.True(t, resp.Error)
			assert.Equal(t, "Unauthorized", resp.Kind)
		})
	}
}

func TestAuthenticate_PublicAllowsAnonymous(t *testing.T) {
	f := newGateFixture(t)
	app := f.app(true)

	status, body := call(t, app, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, "Bearer nonsense")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, f.bearer(t, f.admin.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin@example.com", body)
}

type brokenFinder struct{}

func (brokenFinder) FindByID(context.Context, int64) (*models.User, error) {
	return nil, errors.New("connection reset by peer")
}

func TestAuthenticate_UserLookupFailure(t *testing.T) {
	f := newGateFixture(t)
	build := func(public bool) *fiber.App {
		app := fiber.New()
		app.Get("/", middleware.Authenticate(f.tokens, brokenFinder{}, public), func(c *fiber.Ctx) error {
			if middleware.CurrentUser(c) == nil {
				return c.SendString("anonymous")
			}
			return c.SendString("identified")
		})
		return app
	}

	status, body := call(t, build(true), f.bearer(t, f.mentor.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, _ = call(t, build(false), f.bearer(t, f.mentor.ID))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestRequireRoles(t *testing.T) {
	f := newGateFixture(t)
	adminOnly := f.app(false, middleware.RequireRoles(models.RoleAdmin))

	status, _ := call(t, adminOnly, f.bearer(t, f.admin.ID))
	assert.Equal(t, http.StatusOK, status)

	status, body := call(t, adminOnly, f.bearer(t, f.mentor.ID))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, `"kind":"Forbidden"`)

	staff := f.app(false, middleware.RequireRoles(models.RoleAdmin, models.RoleMentor))
	status, _ = call(t, staff, f.bearer(t, f.mentor.ID))
	assert.Equal(t, http.StatusOK, status)

	publicAdmin := f.app(true, middleware.RequireRoles(models.RoleAdmin))
	status, _ = call(t, publicAdmin, "")
	assert.Equal(t, http.StatusForbidden, status, "anonymous identity has no role")
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.RateLimit(2), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for range 2 {
		status, _ := call(t, app, "")
		assert.Equal(t, http.StatusOK, status)
	}
	status, body := call(t, app, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, `"kind":"RateLimited"`)
}

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.SecurityHeaders(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
