package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

func newTestApp(jwtService *utils.JWTService, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Nop())})
	// Сигнатура fiber v3: (path, handler, middleware...), middleware исполняется первым
	app.Get("/whoami", handler, AuthMiddleware(jwtService))
	return app
}

func Test_AuthMiddleware_SetsCallerID(t *testing.T) {
	// arrange
	jwtService := utils.NewJWTService("secret")
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	app := newTestApp(jwtService, func(c fiber.Ctx) error {
		id, err := UserID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// act
	resp, err := app.Test(req)

	// assert
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func Test_AuthMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	app := newTestApp(utils.NewJWTService("secret"), func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func Test_ErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperr.Validation(uuid.Nil, "text", "empty"), fiber.StatusBadRequest},
		{apperr.Permission(uuid.New(), uuid.New(), "accept"), fiber.StatusForbidden},
		{apperr.NotFound("trade", uuid.New()), fiber.StatusNotFound},
		{apperr.InvalidState(uuid.New(), "accepted", "accept"), fiber.StatusConflict},
		{&apperr.TransientError{Op: "confirm", Err: apperr.ErrSerializationConflict}, fiber.StatusServiceUnavailable},
		{fiber.NewError(fiber.StatusTooManyRequests, "slow down"), fiber.StatusTooManyRequests},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Nop())})
		err := tc.err
		app.Get("/", func(c fiber.Ctx) error { return err })

		resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

		require.NoError(t, testErr)
		assert.Equal(t, tc.code, resp.StatusCode, "error %v", tc.err)
	}
}

func Test_RateLimiter_AllowsBurstThenThrottles(t *testing.T) {
	// arrange
	limiter := NewRateLimiter(1, 2)
	start := time.Now()
	limiter.now = func() time.Time { return start }
	userID := uuid.New()

	// act & assert
	assert.True(t, limiter.Allow(userID))
	assert.True(t, limiter.Allow(userID))
	assert.False(t, limiter.Allow(userID))
	assert.True(t, limiter.Allow(uuid.New()), "limits are per user")

	limiter.now = func() time.Time { return start.Add(time.Second) }
	assert.True(t, limiter.Allow(userID))
}

func Test_RateLimiter_HandlerRunsBeforeRoute(t *testing.T) {
	// arrange
	jwtService := utils.NewJWTService("secret")
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	calls := 0
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Nop())})
	app.Post("/send", func(c fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusCreated)
	}, AuthMiddleware(jwtService), NewRateLimiter(0.001, 1).Handler())

	send := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/send", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	// act
	first := send()
	second := send()

	// assert
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, 1, calls, "throttled request must not reach the route handler")
}
