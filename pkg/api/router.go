package api

import (
	"clv-forecast/pkg/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// SetupRouter expose le rapport en lecture seule sous /api/v1.
func SetupRouter(reportHandler *handlers.ReportHandler, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			appLogger.Error("requête en échec", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())

	v1 := app.Group("/api/v1")
	v1.Get("/report", reportHandler.GetReport)
	v1.Post("/report/refresh", reportHandler.Refresh)
	v1.Get("/histogram", reportHandler.GetHistogram)
	v1.Get("/customers/top", reportHandler.TopCustomers)
	v1.Get("/customers/:id", reportHandler.GetCustomer)

	return app
}
