package controllers

import (
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProgressController struct {
	Progress *services.ProgressService
	Log      *zap.Logger
}

func NewProgressController(progress *services.ProgressService, log *zap.Logger) *ProgressController {
	return &ProgressController{Progress: progress, Log: log}
}

type MarkLectureRequest struct {
	CourseID  string `json:"course_id" validate:"required,uuid"`
	LectureID string `json:"lecture_id" validate:"required,uuid"`
}

// MarkLectureComplete godoc
// @Summary Mark a lecture as completed
// @Tags progress
// @Accept json
// @Produce json
// @Param input body MarkLectureRequest true "Lecture"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [post]
func (pc *ProgressController) MarkLectureComplete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req MarkLectureRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	progress, err := pc.Progress.MarkLectureComplete(c.UserContext(), userID, uuid.MustParse(req.CourseID), uuid.MustParse(req.LectureID))
	if err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

// GetProgress godoc
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param course_id query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := uuid.Parse(c.Query("course_id"))
	if err != nil {
		return utils.ValidationError(c, map[string]string{"course_id": "uuid"})
	}

	progress, err := pc.Progress.GetProgress(c.UserContext(), userID, courseID)
	if err != nil {
		return fail(c, pc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, progress)
}
