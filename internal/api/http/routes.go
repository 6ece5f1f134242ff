package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/env-monitor/internal/weather"
)

// historyErrorMessage is the only detail a client sees when the store fails.
const historyErrorMessage = "Failed to fetch history"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, loc weather.Location, logger *slog.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "env-monitor",
		})
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := service.CheckReadiness(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/env", func(c *fiber.Ctx) error {
		return c.JSON(service.Current())
	})

	api.Get("/env/history", func(c *fiber.Ctx) error {
		limit, err := parseLimit(c.Query("limit"), service.HistoryLimit())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.History(c.UserContext(), limit)
		if err != nil {
			logger.Error("history query failed", "error", err, "limit", limit)
			return fiber.NewError(fiber.StatusInternalServerError, historyErrorMessage)
		}

		return c.JSON(records)
	})

	api.Get("/env/alerts", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"alerts": service.Alerts(),
		})
	})

	api.Get("/location", func(c *fiber.Ctx) error {
		return c.JSON(loc)
	})
}

// parseLimit reads the optional limit query parameter. An empty value means max.
func parseLimit(raw string, max int) (int, error) {
	if raw == "" {
		return max, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if err := validate.Var(n, fmt.Sprintf("gte=1,lte=%d", max)); err != nil {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return n, nil
}
