package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestRequestContextDerivesFromBase(t *testing.T) {
	base := context.WithValue(context.Background(), ctxKey{}, "server")

	var seen context.Context
	app := fiber.New()
	app.Use(RequestContext(base))
	app.Get("/", func(c *fiber.Ctx) error {
		seen = c.UserContext()
		assert.Equal(t, "server", seen.Value(ctxKey{}))
		assert.NoError(t, seen.Err())
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Err(), context.Canceled)
}

func TestRequestContextCancelledWithBase(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()

	app := fiber.New()
	app.Use(RequestContext(base))
	app.Get("/", func(c *fiber.Ctx) error {
		if errors.Is(c.UserContext().Err(), context.Canceled) {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
