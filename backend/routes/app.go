package routes

import (
	"context"
	"errors"

	"coursemarket/backend/config"
	"coursemarket/backend/middleware"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// NewApp builds the fiber app with the middleware stack and all routes.
// Cancelling ctx cancels the context of every in-flight request.
func NewApp(ctx context.Context, svc *Services, cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "coursemarket",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(middleware.RequestContext(ctx))

	SetupRoutes(app, svc, cfg, logger)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return utils.Error(c, fe.Code, fe)
	}
	return utils.InternalServerError(c, "Internal server error")
}
