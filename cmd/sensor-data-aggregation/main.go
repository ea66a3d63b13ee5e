package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jackc/pgx/v5/stdlib"

	httpapi "github.com/i474232898/sensor-data-aggregation/internal/api/http"
	"github.com/i474232898/sensor-data-aggregation/internal/bus"
	"github.com/i474232898/sensor-data-aggregation/internal/config"
	"github.com/i474232898/sensor-data-aggregation/internal/ingest"
	"github.com/i474232898/sensor-data-aggregation/internal/lookup"
	"github.com/i474232898/sensor-data-aggregation/internal/resolver"
	"github.com/i474232898/sensor-data-aggregation/internal/stats"
	"github.com/i474232898/sensor-data-aggregation/internal/store"
	"github.com/i474232898/sensor-data-aggregation/internal/telemetry"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Lookup database for city resolution.
	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open lookup database: %v", err)
	}
	defer db.Close()

	lookupSvc := lookup.NewPostgres(db)
	cityResolver := resolver.New(lookupSvc)

	// Bounded in-memory telemetry window.
	memStore := store.NewMemoryStore(cfg.StoreCapacity)

	// Kafka consumer subscribed to all sensor topics.
	consumer := bus.NewKafkaConsumer(cfg.KafkaBrokers, telemetry.Topics())
	defer consumer.Close()

	// Single background ingestion worker.
	worker := ingest.New(consumer, cityResolver, memStore, cfg.PollTimeout)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	// Periodic runtime stats.
	reporter := stats.New(memStore, cityResolver, cfg.StatsInterval)
	if err := reporter.Start(); err != nil {
		log.Fatalf("failed to start stats reporter: %v", err)
	}
	defer reporter.Stop()

	// Query service consumed by the HTTP layer.
	service := telemetry.NewService(memStore, cityResolver, lookupSvc, worker.Alive)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sensor-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
