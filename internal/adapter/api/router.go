package api

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRouter(app *fiber.App, handler *AnalyzeHandler) {
	// Middleware
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": os.Getenv("APP_VERSION"),
			"env":     os.Getenv("ENV"),
		})
	})

	// API Versioning. All() so the handler can answer non-POST methods
	// with a structured 405 instead of Fiber's plain-text default.
	v1 := app.Group("/v1")
	v1.All("/analyze", handler.HandleAnalyze)

	// Legacy path kept for workflow consumers configured before versioning.
	app.All("/api/analyze", handler.HandleAnalyze)
}
