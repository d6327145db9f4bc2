package controllers

import (
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserController struct {
	Users *services.UserService
	Log   *zap.Logger
}

func NewUserController(users *services.UserService, log *zap.Logger) *UserController {
	return &UserController{Users: users, Log: log}
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student educator" example:"educator"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	user, err := uc.Users.Get(c.UserContext(), userID)
	if err != nil {
		return fail(c, uc.Log, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	})
}

// GetEnrolledCourses godoc
// @Summary Get enrolled courses
// @Description Returns the courses the user is enrolled in, newest first
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/enrolled-courses [get]
func (uc *UserController) GetEnrolledCourses(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courses, err := uc.Users.EnrolledCourses(c.UserContext(), userID)
	if err != nil {
		return fail(c, uc.Log, err)
	}

	out := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		out = append(out, courseSummary(&courses[i]))
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// UpdateRole godoc
// @Summary Become an educator
// @Description Upgrades a student to the educator role. The change is one-way.
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateRoleRequest true "Target role"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/role [post]
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req UpdateRoleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := uc.Users.ChangeRole(c.UserContext(), userID, models.Role(req.Role))
	if err != nil {
		return fail(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"role": user.Role})
}
