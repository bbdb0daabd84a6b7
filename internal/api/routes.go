package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/middleware"
)

// NewApp builds the fiber app with global middleware and every route.
func NewApp(cfg *config.Config, h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.HTTPTimeout,
		WriteTimeout:          cfg.HTTPTimeout,
		IdleTimeout:           120 * time.Second,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	SetupRoutes(app, h, cfg.AdminAPIKey)
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers, adminKey string) {
	api := app.Group("/api/v1")

	api.Get("/health", h.HealthCheck)

	content := api.Group("/content")
	content.Get("", middleware.ValidateQuery[ListQuery](), h.ListContent)
	content.Get("/:id", h.GetContent)

	admin := api.Group("/admin", middleware.AdminOnly(adminKey))
	admin.Post("/generate", middleware.ValidateBody[GenerateRequest](), h.Generate)
	admin.Get("/performance", h.Performance)
	admin.Post("/schedule/run", h.RunSchedule)
	admin.Delete("/content/:id", h.DeleteContent)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
