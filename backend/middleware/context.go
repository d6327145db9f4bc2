package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// RequestContext gives every handler a user context derived from base and
// cancelled when the handler returns. fasthttp does not report client
// disconnects, so cancelling base on shutdown is what aborts in-flight
// gateway calls; the gateway timeout bounds the rest.
func RequestContext(base context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
