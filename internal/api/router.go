package api

import (
	"errors"
	"time"

	_ "revelio-finance/docs"
	"revelio-finance/internal/api/handlers"
	"revelio-finance/pkg/auth"
	"revelio-finance/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Statement *handlers.StatementHandler
	AI        *handlers.AIHandler
	Stream    *handlers.StreamHandler
	Health    *handlers.HealthHandler
}

type RouterConfig struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// JWTManager enables bearer auth on /api/v1 and /ws when non-nil.
	JWTManager *auth.JWTManager
	// AccessLog toggles the per-request logger middleware.
	AccessLog bool
}

func SetupRouter(h Handlers, cfg RouterConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Revelio Finance",
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Error("Request failed",
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Health.Health)

	var guards []fiber.Handler
	if cfg.JWTManager != nil {
		guards = append(guards, middleware.AuthMiddleware(cfg.JWTManager, appLogger))
	}

	// Alias kept for clients of the first API version
	app.Post("/upload-ofx", append(guards, h.Statement.UploadStatement)...)

	v1 := app.Group("/api/v1", guards...)
	v1.Post("/statements/upload", h.Statement.UploadStatement)

	ai := v1.Group("/ai")
	ai.Post("/categorize", h.AI.Categorize)
	ai.Post("/analyze-anomaly", h.AI.AnalyzeAnomaly)

	ws := app.Group("/ws", append([]fiber.Handler{h.Stream.RequireUpgrade}, guards...)...)
	ws.Get("/analyze", h.Stream.AnalyzeStream())

	return app
}
