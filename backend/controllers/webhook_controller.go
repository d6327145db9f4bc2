package controllers

import (
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const signatureHeader = "Stripe-Signature"

type WebhookController struct {
	Enrollment *services.EnrollmentService
	Log        *zap.Logger
}

func NewWebhookController(enrollment *services.EnrollmentService, log *zap.Logger) *WebhookController {
	return &WebhookController{Enrollment: enrollment, Log: log}
}

// HandlePayment godoc
// @Summary Payment provider webhook
// @Description Verifies the signature and settles or fails the referenced purchase
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /webhooks/payments [post]
func (wc *WebhookController) HandlePayment(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	if err := wc.Enrollment.HandleWebhook(c.UserContext(), payload, c.Get(signatureHeader)); err != nil {
		if services.KindOf(err) == services.KindValidation {
			wc.Log.Warn("webhook rejected", zap.Error(err))
		}
		return fail(c, wc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "received")
}
