package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"vodgate/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, accessSvc service.AccessService, streamSvc service.StreamService) {
	// Serve the OpenAPI document and Swagger UI
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

	// Health endpoint: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	// Subscription access probe for the player UI
	app.Get("/media/access", VideoAccess(accessSvc))

	// The media gateway itself
	app.Get("/media/:category/:filename", StreamMedia(accessSvc, streamSvc))
}

// HealthCheck reports whether the subscription store is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
