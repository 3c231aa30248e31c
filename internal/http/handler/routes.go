package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docintake/internal/service"
)

// Dependencies are the collaborators the HTTP routes are built from.
type Dependencies struct {
	DB        *sql.DB
	Documents service.DocumentService
	Reminders service.ReminderService
	// Auth guards every /api route.
	Auth    fiber.Handler
	Metrics prometheus.Gatherer
	Log     *zap.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", d.Auth)

	docs := api.Group("/documents")
	docs.Get("/", ListDocuments(d.Documents, d.Log))
	docs.Post("/", UploadDocument(d.Documents, d.Log))
	docs.Get("/:id", GetDocument(d.Documents, d.Log))
	docs.Delete("/:id", DeleteDocument(d.Documents, d.Log))
	docs.Post("/:id/ask", AskDocument(d.Documents, d.Log))
	docs.Get("/:id/download", DownloadDocument(d.Documents, d.Log))
	docs.Post("/:id/reminders", CreateReminderFromActionItem(d.Reminders, d.Log))

	reminders := api.Group("/reminders")
	reminders.Get("/", ListReminders(d.Reminders, d.Log))
	reminders.Post("/", CreateReminder(d.Reminders, d.Log))
	reminders.Patch("/:id", UpdateReminder(d.Reminders, d.Log))
	reminders.Delete("/:id", DeleteReminder(d.Reminders, d.Log))
}
