package routes

import (
	"coursemarket/backend/config"
	"coursemarket/backend/controllers"
	"coursemarket/backend/middleware"
	"coursemarket/backend/payments"
	"coursemarket/backend/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services groups what the handlers depend on so tests and the CLI share the
// same wiring.
type Services struct {
	Users      *services.UserService
	Catalog    *services.CatalogService
	Enrollment *services.EnrollmentService
	Progress   *services.ProgressService
	Ratings    *services.RatingService
}

func NewServices(db *gorm.DB, cfg *config.Config, gateway payments.Gateway, logger *zap.Logger) *Services {
	return &Services{
		Users:      services.NewUserService(db),
		Catalog:    services.NewCatalogService(db),
		Enrollment: services.NewEnrollmentService(db, gateway, cfg, logger),
		Progress:   services.NewProgressService(db),
		Ratings:    services.NewRatingService(db),
	}
}

func SetupRoutes(app *fiber.App, svc *Services, cfg *config.Config, logger *zap.Logger) {
	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc.Users, cfg, logger)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// User routes
	userController := controllers.NewUserController(svc.Users, logger)
	api.Get("/user/profile", authMiddleware, userController.GetProfile)
	api.Get("/user/enrolled-courses", authMiddleware, userController.GetEnrolledCourses)
	api.Post("/user/role", authMiddleware, userController.UpdateRole)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc.Catalog, svc.Enrollment, logger)
	api.Get("/courses", coursesController.GetCourses)
	api.Get("/courses/:id", coursesController.GetCourseDetails)
	api.Post("/courses/:id/enroll", authMiddleware, coursesController.EnrollFree)

	// Purchase routes
	purchaseController := controllers.NewPurchaseController(svc.Enrollment, logger)
	api.Post("/purchases", authMiddleware, purchaseController.BeginPurchase)
	api.Post("/purchases/complete", authMiddleware, purchaseController.CompletePurchase)
	api.Get("/purchases/verify", middleware.AuthMiddlewareAllowQuery(cfg), purchaseController.VerifySession)
	api.Post("/purchases/:id/cancel", authMiddleware, purchaseController.CancelPurchase)

	// Webhooks authenticate by signature, not by user token
	webhookController := controllers.NewWebhookController(svc.Enrollment, logger)
	api.Post("/webhooks/payments", webhookController.HandlePayment)

	// Progress routes
	progressController := controllers.NewProgressController(svc.Progress, logger)
	api.Post("/progress", authMiddleware, progressController.MarkLectureComplete)
	api.Get("/progress", authMiddleware, progressController.GetProgress)

	// Rating routes
	ratingController := controllers.NewRatingController(svc.Ratings, logger)
	api.Post("/ratings", authMiddleware, ratingController.RateCourse)
	api.Get("/ratings", authMiddleware, ratingController.GetRating)
}
