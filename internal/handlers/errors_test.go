package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/services"
)

func errorApp(logs io.Writer, err error) *fiber.App {
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	app.Get("/", func(*fiber.Ctx) error { return err })
	return app
}

func get(t *testing.T, app *fiber.App) (int, dto.ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
		logged  bool
	}{
		{
			name:    "known kind wrapped",
			err:     fmt.Errorf("register: %w", services.ErrUserAlreadyExists),
			status:  http.StatusConflict,
			kind:    "UserAlreadyExists",
			message: "A user with this email already exists",
		},
		{
			name:    "fiber error",
			err:     fiber.NewError(http.StatusNotFound, "Cannot GET /nope"),
			status:  http.StatusNotFound,
			kind:    "HTTPError",
			message: "Cannot GET /nope",
		},
		{
			name:    "unknown error hides detail",
			err:     errors.New("pq: password authentication failed"),
			status:  http.StatusInternalServerError,
			kind:    "InternalError",
			message: "Internal server error",
			logged:  true,
		},
		{
			name:    "upstream is a server error",
			err:     services.ErrUpstream,
			status:  http.StatusBadGateway,
			kind:    "UpstreamError",
			message: "The identity provider is unavailable",
			logged:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			status, body := get(t, errorApp(&logs, tt.err))

			assert.Equal(t, tt.status, status)
			assert.True(t, body.Error)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.message, body.Message)
			if tt.logged {
				assert.Contains(t, logs.String(), "unhandled server error")
				assert.Contains(t, logs.String(), tt.err.Error())
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}
