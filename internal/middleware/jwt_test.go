package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-overview-api/internal/middleware"
)

const testSecret = "test-secret"

func authApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Authenticate(testSecret))
	app.Get("/", middleware.WithUser(func(c *fiber.Ctx, userID uint) error {
		return c.JSON(fiber.Map{
			"user_id": userID,
			"role":    c.Locals(middleware.LocalSiteRole),
		})
	}))
	return app
}

func perform(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthenticateAcceptsSignedToken(t *testing.T) {
	token, err := middleware.SignToken(testSecret, 42, "ADMIN", time.Hour)
	require.NoError(t, err)

	resp := perform(t, authApp(), token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	app := authApp()

	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, "").StatusCode)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, "garbage").StatusCode)

	wrongKey, err := middleware.SignToken("other-secret", 42, "", time.Hour)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, wrongKey).StatusCode)

	expired, err := middleware.SignToken(testSecret, 42, "", -time.Minute)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, expired).StatusCode)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, noSubject).StatusCode)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "42"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, hs512).StatusCode)
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RequireUser())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	require.Equal(t, fiber.StatusUnauthorized, perform(t, app, "").StatusCode)
}

func TestRateLimitSkipsReads(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RateLimit("test", 1, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	for i := 0; i < 3; i++ {
		require.Equal(t, fiber.StatusOK, perform(t, app, "").StatusCode)
	}

	post := func() int {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", nil), -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	require.Equal(t, fiber.StatusCreated, post())
	require.Equal(t, fiber.StatusTooManyRequests, post())
}

func TestCorrelationIDPropagates(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(middleware.HeaderCorrelationID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(middleware.HeaderCorrelationID))
}
