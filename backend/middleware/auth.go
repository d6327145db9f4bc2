package middleware

import (
	"coursemarket/backend/config"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return authenticate(cfg, false)
}

// AuthMiddlewareAllowQuery also accepts the token as a `token` query
// parameter, for redirect-driven flows where the browser cannot set headers.
func AuthMiddlewareAllowQuery(cfg *config.Config) fiber.Handler {
	return authenticate(cfg, true)
}

func authenticate(cfg *config.Config, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("Authorization")
		if raw == "" && allowQuery {
			raw = c.Query("token")
		}
		userID, err := utils.ParseUserToken(raw, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the id resolved by the auth middleware.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
