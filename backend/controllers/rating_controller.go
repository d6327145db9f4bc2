package controllers

import (
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RatingController struct {
	Ratings *services.RatingService
	Log     *zap.Logger
}

func NewRatingController(ratings *services.RatingService, log *zap.Logger) *RatingController {
	return &RatingController{Ratings: ratings, Log: log}
}

// Rating range is checked by the service.
type RateCourseRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Rating   int    `json:"rating" example:"5"`
}

// RateCourse godoc
// @Summary Rate a course
// @Description Records the user's rating from 1 to 5. Rating again replaces the previous value.
// @Tags ratings
// @Accept json
// @Produce json
// @Param input body RateCourseRequest true "Rating"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ratings [post]
func (rc *RatingController) RateCourse(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req RateCourseRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := rc.Ratings.RateCourse(c.UserContext(), userID, uuid.MustParse(req.CourseID), req.Rating); err != nil {
		return fail(c, rc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "Rating saved")
}

// GetRating godoc
// @Summary Get my rating for a course
// @Tags ratings
// @Produce json
// @Param course_id query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ratings [get]
func (rc *RatingController) GetRating(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := uuid.Parse(c.Query("course_id"))
	if err != nil {
		return utils.ValidationError(c, map[string]string{"course_id": "uuid"})
	}

	rating, err := rc.Ratings.GetRating(c.UserContext(), userID, courseID)
	if err != nil {
		return fail(c, rc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"rating": rating})
}
