package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carevault/internal/auth"
	"carevault/internal/config"
	"carevault/internal/database"
	"carevault/internal/database/migration"
	handlers "carevault/internal/http/handler"
	"carevault/internal/http/middleware"
	"carevault/internal/notify"
	"carevault/internal/otel"
	"carevault/internal/repository/postgres"
	"carevault/internal/service"
	"carevault/internal/storage"
)

// reminderSweepInterval is how often due appointment reminders are dispatched.
const reminderSweepInterval = 15 * time.Minute

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	if err != nil {
		log.Fatalf("failed to initialize token issuer: %v", err)
	}
	if cfg.Encryption.Key == "" {
		log.Fatal("ENCRYPTION_KEY is required")
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	medRepo := postgres.NewMedicationPostgres(db)
	symptomRepo := postgres.NewSymptomPostgres(db)
	apptRepo := postgres.NewAppointmentPostgres(db)
	postRepo := postgres.NewPostPostgres(db)

	apptSvc := service.NewAppointmentService(apptRepo, userRepo, notify.NewLogNotifier())
	svcs := handlers.Services{
		Users:        service.NewUserService(userRepo, tokens),
		Documents:    service.NewDocumentService(objStore, docRepo, cfg.Encryption.Key),
		Medications:  service.NewMedicationService(medRepo),
		Symptoms:     service.NewSymptomService(symptomRepo),
		Appointments: apptSvc,
		Dashboard:    service.NewDashboardService(docRepo, medRepo, symptomRepo, apptRepo),
		Forum:        service.NewForumService(postRepo),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    25 * 1024 * 1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, tokens, svcs)

	// Periodic reminder dispatch for upcoming appointments
	go func() {
		ticker := time.NewTicker(reminderSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := apptSvc.SendDueReminders(ctx); err != nil {
				log.Printf("reminder sweep failed: %v", err)
			}
		}
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
