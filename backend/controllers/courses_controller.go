package controllers

import (
	"strconv"

	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CoursesController struct {
	Catalog    *services.CatalogService
	Enrollment *services.EnrollmentService
	Log        *zap.Logger
}

func NewCoursesController(catalog *services.CatalogService, enrollment *services.EnrollmentService, log *zap.Logger) *CoursesController {
	return &CoursesController{Catalog: catalog, Enrollment: enrollment, Log: log}
}

func courseSummary(course *models.Course) fiber.Map {
	return fiber.Map{
		"id":                 course.ID,
		"course_title":       course.Title,
		"course_description": course.Description,
		"course_thumbnail":   course.ThumbnailURL,
		"course_price":       course.Price.StringFixed(2),
		"discount":           course.Discount.StringFixed(2),
		"discounted_price":   course.DiscountedPrice().StringFixed(2),
		"educator_id":        course.EducatorID,
	}
}

// GetCourses godoc
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	courses, total, err := cc.Catalog.ListPublished(c.UserContext(), page, pageSize)
	if err != nil {
		return fail(c, cc.Log, err)
	}

	out := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		out = append(out, courseSummary(&courses[i]))
	}
	return utils.Paginate(c, out, total, page, pageSize)
}

// GetCourseDetails godoc
// @Summary Get a published course
// @Description Returns the course with chapters and lectures in order. Lecture URLs are only shown for free previews.
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	courseID, ok, err := parseID(c, c.Params("id"))
	if !ok {
		return err
	}

	course, err := cc.Catalog.GetPublished(c.UserContext(), courseID)
	if err != nil {
		return fail(c, cc.Log, err)
	}

	chapters := make([]fiber.Map, 0, len(course.Chapters))
	for _, ch := range course.Chapters {
		lectures := make([]fiber.Map, 0, len(ch.Lectures))
		for _, l := range ch.Lectures {
			lecture := fiber.Map{
				"id":               l.ID,
				"lecture_title":    l.Title,
				"lecture_duration": l.Duration,
				"lecture_order":    l.Order,
				"is_preview_free":  l.IsPreviewFree,
			}
			if l.IsPreviewFree {
				lecture["lecture_url"] = l.URL
			}
			lectures = append(lectures, lecture)
		}
		chapters = append(chapters, fiber.Map{
			"id":              ch.ID,
			"chapter_title":   ch.Title,
			"chapter_order":   ch.Order,
			"chapter_content": lectures,
		})
	}

	out := courseSummary(course)
	out["course_content"] = chapters
	return utils.Success(c, fiber.StatusOK, out)
}

// EnrollFree godoc
// @Summary Enroll in a free course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) EnrollFree(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, ok, err := parseID(c, c.Params("id"))
	if !ok {
		return err
	}

	if err := cc.Enrollment.EnrollFree(c.UserContext(), userID, courseID); err != nil {
		return fail(c, cc.Log, err)
	}
	return utils.Message(c, fiber.StatusOK, "Enrolled successfully")
}
