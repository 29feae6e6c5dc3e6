package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"storeit/internal/http/middleware"
	"storeit/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: request parsing and error translation only.
func RegisterRoutes(app *fiber.App, db *sql.DB, identity service.IdentityService, files service.FileService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
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
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	auth := app.Group("/auth")
	auth.Post("/sign-up", SignUp(identity))
	auth.Post("/sign-in", SignIn(identity))
	auth.Post("/otp", ResendOTP(identity))
	auth.Post("/verify", Verify(identity))
	// Sign-out is reachable without a valid session: the cookie is cleared and
	// the client redirected regardless.
	auth.Post("/sign-out", SignOut(identity))
	auth.Get("/me", middleware.Session(identity), Me())

	fileGroup := app.Group("/files", middleware.Session(identity))
	fileGroup.Post("/", UploadFile(files))
	fileGroup.Get("/", ListFiles(files))
	fileGroup.Get("/summary", StorageSummary(files))
	fileGroup.Patch("/:id/name", RenameFile(files))
	fileGroup.Put("/:id/users", UpdateFileUsers(files))
	fileGroup.Delete("/:id", DeleteFile(files))
	fileGroup.Get("/:id/download", DownloadFile(files))
}
