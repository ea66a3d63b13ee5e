package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sensor-data-aggregation/internal/telemetry"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// Fixed paths are registered before the /:operation catch-all so they are
// matched first.
func RegisterRoutes(app *fiber.App, service *telemetry.Service) {
	v1 := app.Group("/api/v1/sensors")

	v1.Get("/data", func(c *fiber.Ctx) error {
		return c.JSON(service.GetAll())
	})

	v1.Get("/data/:city", func(c *fiber.Ctx) error {
		cityName := c.Params("city")

		records, err := service.GetByCityName(c.Context(), cityName)
		if err != nil {
			if errors.Is(err, telemetry.ErrUnknownCity) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("city not found: %s", cityName))
			}
			if errors.Is(err, telemetry.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no data found for city: %s", cityName))
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch sensor data")
		}

		return c.JSON(records)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := service.Cities(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list cities")
		}
		return c.JSON(cities)
	})

	v1.Get("/sensor-data", func(c *fiber.Ctx) error {
		sensorID := c.Query("sensor_id")
		if sensorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "sensor_id is required")
		}

		records, err := service.GetBySensor(sensorID)
		if err != nil {
			if errors.Is(err, telemetry.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, "no data found for this sensor")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch sensor data")
		}

		return c.JSON(records)
	})

	v1.Get("/city/:city_id", func(c *fiber.Ctx) error {
		return c.JSON(service.GetByCityID(c.Params("city_id")))
	})

	v1.Get("/health", func(c *fiber.Ctx) error {
		health := service.Health()
		return c.JSON(fiber.Map{
			"status":           "ok",
			"consumer_running": health.IngestionAlive,
			"message_count":    health.RecordCount,
			"cache_size":       health.CacheSize,
		})
	})

	v1.Get("/:operation", func(c *fiber.Ctx) error {
		var req aggregateQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date format; use YYYY-MM-DD")
		}

		result, err := service.Aggregate(
			telemetry.Operation(req.Operation),
			req.CityID,
			telemetry.SensorType(req.SensorType),
			day,
		)
		if err != nil {
			if errors.Is(err, telemetry.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf(
					"no data found for city_id=%s, sensor_type=%s, date=%s",
					req.CityID, req.SensorType, req.Date))
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate sensor data")
		}

		return c.JSON(result)
	})
}

// aggregateQuery holds the path and query parameters of an aggregation call.
type aggregateQuery struct {
	Operation  string `validate:"required,oneof=average min max"`
	CityID     string `validate:"required"`
	SensorType string `validate:"required,oneof=air ambient traffic water_quality water_usage"`
	Date       string `validate:"required,datetime=2006-01-02"`
}

func (q *aggregateQuery) bind(c *fiber.Ctx) error {
	q.Operation = c.Params("operation")
	q.CityID = c.Query("city_id")
	q.SensorType = c.Query("sensor_type")
	q.Date = c.Query("date")

	return validate.Struct(q)
}
