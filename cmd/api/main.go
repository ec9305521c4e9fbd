package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vodgate/internal/config"
	"vodgate/internal/database"
	"vodgate/internal/database/migration"
	handlers "vodgate/internal/http/handler"
	"vodgate/internal/http/middleware"
	"vodgate/internal/otel"
	"vodgate/internal/repository/postgres"
	"vodgate/internal/service"
	"vodgate/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Select the media store backend. The local backend serves a directory the
	// external uploader writes into; the s3 backend reads from MinIO.
	var store storage.MediaStore
	switch cfg.Media.Backend {
	case config.BackendS3:
		store, err = storage.NewMinIO(cfg.MinIO)
	default:
		store, err = storage.NewLocal(cfg.Media)
	}
	if err != nil {
		log.Fatalf("failed to initialize media store: %v", err)
	}

	// Metrics registry shared by the HTTP middleware and the stream service
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	streamMetrics, err := service.NewStreamMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register stream metrics: %v", err)
	}

	// Initialize repositories and services
	accessRepo := postgres.NewAccessPostgres(db)
	accessSvc := service.NewAccessService(accessRepo)
	streamSvc := service.NewStreamService(store, streamMetrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	// Identity resolution is best-effort: invalid or missing tokens proceed
	// anonymously and the access service decides per category
	app.Use(middleware.Identity(cfg.Auth))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, accessSvc, streamSvc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
