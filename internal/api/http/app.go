package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/i474232898/env-monitor/internal/observability"
)

// AppOptions configures the Fiber app.
type AppOptions struct {
	CORSAllowOrigins string
	AccessLog        bool
}

// NewApp builds the Fiber app with the global middleware and the central
// error handler. Every error body has the shape {"error": "<message>"}.
func NewApp(opts AppOptions, log *slog.Logger, metrics *observability.Metrics) *fiber.App {
	if opts.CORSAllowOrigins == "" {
		opts.CORSAllowOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:               "env-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			} else {
				log.Error("unhandled request error", "error", err, "path", c.Path())
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSAllowOrigins,
		AllowMethods: "GET,HEAD,OPTIONS",
	}))
	app.Use(requestMetrics(metrics))

	return app
}

// requestMetrics counts requests by matched route and final status code.
func requestMetrics(metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		route := "unmatched"
		if status != fiber.StatusNotFound || err == nil {
			route = c.Route().Path
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		return err
	}
}
