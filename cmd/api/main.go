package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storeit/internal/cache"
	"storeit/internal/config"
	"storeit/internal/database"
	"storeit/internal/database/migration"
	handlers "storeit/internal/http/handler"
	"storeit/internal/http/middleware"
	"storeit/internal/mail"
	"storeit/internal/otel"
	"storeit/internal/repository/postgres"
	"storeit/internal/service"
	"storeit/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

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

	// Redis backs one-time passcodes and cached listing views
	redisStore, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Without an SMTP host, OTP mails are written to stdout (local development)
	var mailer mail.Mailer
	if cfg.SMTP.Host != "" {
		mailer, err = mail.NewSMTP(cfg.SMTP)
		if err != nil {
			log.Fatalf("failed to initialize mailer: %v", err)
		}
	} else {
		mailer = mail.NewLog(os.Stdout)
	}

	// Initialize repositories and services
	accountRepo := postgres.NewAccountPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	sessionRepo := postgres.NewSessionPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)

	identitySvc := service.NewIdentityService(
		accountRepo, userRepo, sessionRepo,
		redisStore, mailer,
		cfg.Auth.OTPTTL, cfg.Auth.SessionTTL,
	)
	fileSvc := service.NewFileService(objStore, fileRepo, redisStore)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, identitySvc, fileSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
