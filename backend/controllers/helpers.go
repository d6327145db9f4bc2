package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bind parses and validates a JSON body. When ok is false the error response
// has already been written and err is what the handler should return.
func bind(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	return middleware.CurrentUserID(c)
}

// fail writes the envelope for a service error and logs anything the client
// only sees as a generic message.
func fail(c *fiber.Ctx, log *zap.Logger, err error) error {
	if utils.StatusFor(err) >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return utils.FromError(c, err)
}

func parseID(c *fiber.Ctx, raw string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, utils.ValidationError(c, map[string]string{"id": "uuid"})
	}
	return id, true, nil
}
