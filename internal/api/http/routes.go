package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/i474232898/weather-records/internal/weather"
)

// WeatherService is the subset of *weather.Service the handlers use.
type WeatherService interface {
	Submit(ctx context.Context, q weather.WeatherQuery) (string, error)
	Fetch(id string) (weather.WeatherRecord, error)
	Stats() weather.Stats
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		st := service.Stats()
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-records",
			"provider": st.Provider,
			"breaker":  st.Breaker,
			"records":  st.Records,
		})
	})

	app.Post("/weather", func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object with date, location and notes")
		}

		id, err := service.Submit(c.UserContext(), req.toQuery())
		if err != nil {
			return err
		}

		return c.JSON(createResponse{ID: id})
	})

	app.Get("/weather/:id", func(c *fiber.Ctx) error {
		record, err := service.Fetch(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(record)
	})
}

// createRequest is the body of POST /weather.
type createRequest struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (r createRequest) toQuery() weather.WeatherQuery {
	return weather.WeatherQuery{
		Date:     r.Date,
		Location: r.Location,
		Notes:    r.Notes,
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// ErrorHandler is the centralized Fiber error handler. Domain errors are mapped
// to status codes; anything unclassified becomes a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, kind, message := classify(err)
	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "status", code, "error", err)
	}

	body := fiber.Map{
		"error":   true,
		"message": message,
	}
	if kind != "" {
		body["kind"] = kind
	}
	return c.Status(code).JSON(body)
}

func classify(err error) (int, string, string) {
	kind := weather.Kind(err)

	var verr *weather.ValidationError
	var perr *weather.ProviderError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, kind, verr.Error()
	case errors.As(err, &perr):
		if errors.Is(perr, weather.ErrProviderRejected) {
			return fiber.StatusBadRequest, kind, perr.Message
		}
		return fiber.StatusBadGateway, kind, perr.Message
	case errors.Is(err, weather.ErrNotFound):
		return fiber.StatusNotFound, kind, "Weather data not found"
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, "", ferr.Message
	}
	return fiber.StatusInternalServerError, "", "internal server error"
}

// CORS builds the cross-origin middleware for the configured origins.
// Credentials are only allowed for an explicit origin list.
func CORS(origins []string) fiber.Handler {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	cfg := cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: !wildcard,
	}
	if wildcard {
		cfg.AllowOrigins = "*"
	}
	return cors.New(cfg)
}
