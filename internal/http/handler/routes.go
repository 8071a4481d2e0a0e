package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"carevault/internal/auth"
	"carevault/internal/http/middleware"
	"carevault/internal/model"
	"carevault/internal/service"
)

// Services bundles the service layer for route registration.
type Services struct {
	Users        service.UserService
	Documents    service.DocumentService
	Medications  service.MedicationService
	Symptoms     service.SymptomService
	Appointments service.AppointmentService
	Dashboard    service.DashboardService
	Forum        service.ForumService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin; every decision beyond parsing lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, verifier *auth.TokenIssuer, svcs Services) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Type("html").SendString(swaggerPage)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Credential endpoints are rate limited per client IP.
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
	})
	authGroup := app.Group("/auth", authLimiter)
	authGroup.Post("/register", Register(svcs.Users))
	authGroup.Post("/login", Login(svcs.Users))

	authed := app.Group("/", middleware.Auth(verifier))

	users := authed.Group("/users")
	users.Get("/me", Me(svcs.Users))
	users.Put("/me", UpdateProfile(svcs.Users))
	users.Put("/me/password", ChangePassword(svcs.Users))
	users.Get("/care-team", CareTeam(svcs.Users))

	docs := authed.Group("/documents")
	docs.Post("/upload", UploadDocument(svcs.Documents))
	docs.Get("/", ListDocuments(svcs.Documents))
	docs.Get("/:id/download", DownloadDocument(svcs.Documents))
	docs.Get("/:id/content", FetchDocument(svcs.Documents))
	docs.Post("/:id/share", ShareDocument(svcs.Documents))
	docs.Delete("/:id", DeleteDocument(svcs.Documents))

	meds := authed.Group("/medications")
	meds.Post("/", CreateMedication(svcs.Medications))
	meds.Get("/", ListMedications(svcs.Medications))
	meds.Get("/:id", GetMedication(svcs.Medications))
	meds.Put("/:id", UpdateMedication(svcs.Medications))
	meds.Delete("/:id", DeleteMedication(svcs.Medications))

	symptoms := authed.Group("/symptoms")
	symptoms.Post("/", RecordSymptom(svcs.Symptoms))
	symptoms.Get("/", ListSymptoms(svcs.Symptoms))
	symptoms.Get("/stats", SymptomStats(svcs.Symptoms))
	symptoms.Get("/export", ExportSymptoms(svcs.Symptoms))

	appts := authed.Group("/appointments")
	appts.Post("/", CreateAppointment(svcs.Appointments))
	appts.Get("/", ListAppointments(svcs.Appointments))
	appts.Get("/:id", GetAppointment(svcs.Appointments))
	appts.Put("/:id", UpdateAppointment(svcs.Appointments))
	appts.Put("/:id/reminders", UpdateAppointmentReminders(svcs.Appointments))
	appts.Delete("/:id", DeleteAppointment(svcs.Appointments))

	authed.Get("/dashboard", GetDashboard(svcs.Dashboard))

	admin := authed.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.Post("/reminders/sweep", SweepReminders(svcs.Appointments))

	forum := authed.Group("/forum/posts")
	forum.Post("/", CreatePost(svcs.Forum))
	forum.Get("/", ListPosts(svcs.Forum))
	forum.Post("/:id/comments", AddComment(svcs.Forum))
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
