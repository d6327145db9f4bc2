package controllers

import (
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PurchaseController struct {
	Enrollment *services.EnrollmentService
	Log        *zap.Logger
}

func NewPurchaseController(enrollment *services.EnrollmentService, log *zap.Logger) *PurchaseController {
	return &PurchaseController{Enrollment: enrollment, Log: log}
}

type BeginPurchaseRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Method   string `json:"method" validate:"omitempty,oneof=intent checkout" example:"intent"`
}

type CompletePurchaseRequest struct {
	CourseID   string `json:"course_id" validate:"required,uuid"`
	PaymentRef string `json:"payment_ref" validate:"required" example:"pi_3Nx..."`
}

type VerifySessionQuery struct {
	SessionID string `json:"session_id" query:"session_id" validate:"required"`
	CourseID  string `json:"course_id" query:"course_id" validate:"required,uuid"`
}

// BeginPurchase godoc
// @Summary Start a course purchase
// @Description Creates a pending purchase at the course's discounted price and returns what the client needs to pay
// @Tags purchases
// @Accept json
// @Produce json
// @Param input body BeginPurchaseRequest true "Course to buy"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases [post]
func (pc *PurchaseController) BeginPurchase(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req BeginPurchaseRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	checkout, err := pc.Enrollment.BeginPurchase(c.UserContext(), userID, uuid.MustParse(req.CourseID), models.PaymentMethod(req.Method))
	if err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Created(c, checkout)
}

// CompletePurchase godoc
// @Summary Complete a course purchase
// @Description Re-verifies the payment with the provider and enrolls the user. Safe to retry.
// @Tags purchases
// @Accept json
// @Produce json
// @Param input body CompletePurchaseRequest true "Payment reference"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases/complete [post]
func (pc *PurchaseController) CompletePurchase(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req CompletePurchaseRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := pc.Enrollment.CompletePurchase(c.UserContext(), userID, uuid.MustParse(req.CourseID), req.PaymentRef); err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "Purchase completed")
}

// VerifySession godoc
// @Summary Verify a checkout session
// @Description Redirect target of the hosted checkout page. The token may be passed as a query parameter.
// @Tags purchases
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Param course_id query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases/verify [get]
func (pc *PurchaseController) VerifySession(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var q VerifySessionQuery
	if err := c.QueryParser(&q); err != nil {
		return utils.BadRequest(c, "Invalid query")
	}
	if errs := utils.ValidateStruct(&q); errs != nil {
		return utils.ValidationError(c, errs)
	}

	if err := pc.Enrollment.VerifySession(c.UserContext(), userID, uuid.MustParse(q.CourseID), q.SessionID); err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "Purchase verified")
}

// CancelPurchase godoc
// @Summary Cancel a pending purchase
// @Tags purchases
// @Produce json
// @Param id path string true "Purchase ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /purchases/{id}/cancel [post]
func (pc *PurchaseController) CancelPurchase(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	purchaseID, ok, err := parseID(c, c.Params("id"))
	if !ok {
		return err
	}

	if err := pc.Enrollment.CancelPurchase(c.UserContext(), userID, purchaseID); err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "Purchase cancelled")
}
