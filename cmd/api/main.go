package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docintake/docs"
	"docintake/internal/analyzer"
	"docintake/internal/auth"
	"docintake/internal/config"
	"docintake/internal/database"
	"docintake/internal/database/migration"
	"docintake/internal/extract"
	handlers "docintake/internal/http/handler"
	"docintake/internal/http/middleware"
	"docintake/internal/llm/factory"
	"docintake/internal/logger"
	"docintake/internal/otel"
	"docintake/internal/repository/postgres"
	"docintake/internal/service"
	"docintake/internal/storage"
)

// @title Document Intake API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// PostgreSQL with pooling via database/sql
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	llmClient, err := factory.New(cfg.LLM, log)
	if err != nil {
		log.Fatal("failed to initialize language model client", zap.Error(err))
	}
	docAnalyzer, err := analyzer.New(llmClient, cfg.LLM.Timeout, log)
	if err != nil {
		log.Fatal("failed to initialize analyzer", zap.Error(err))
	}

	verifier, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("failed to initialize token verifier", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics, err := service.NewPipelineMetrics(reg)
	if err != nil {
		log.Fatal("failed to register pipeline metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	// Repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	reminderRepo := postgres.NewReminderPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	docSvc := service.NewDocumentService(
		storage.NewGateway(backend),
		docRepo,
		extract.New(cfg.OCR, log),
		docAnalyzer,
		pipelineMetrics,
		log,
		service.DocumentOptions{
			MaxUploadBytes: cfg.UploadMaxBytes,
			TextCacheTTL:   cfg.TextCacheTTL,
			PresignExpiry:  cfg.Storage.PresignExpiry,
		},
	)
	reminderSvc := service.NewReminderService(reminderRepo, docRepo)
	userSvc := service.NewUserService(userRepo, time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart framing on top of the largest accepted file.
		BodyLimit: int(cfg.UploadMaxBytes) + 1<<20,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:        db,
		Documents: docSvc,
		Reminders: reminderSvc,
		Auth:      middleware.Auth(verifier, userSvc, log),
		Metrics:   reg,
		Log:       log,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http_server_start", zap.String("addr", addr), zap.String("storage_driver", cfg.Storage.Driver))
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("http_server_failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("http_server_shutdown")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("http_server_shutdown_failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing_shutdown_failed", zap.Error(err))
	}
}
