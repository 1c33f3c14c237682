package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/compass-api/internal/config"
	"github.com/noah-isme/compass-api/internal/handler"
	"github.com/noah-isme/compass-api/internal/middleware"
	"github.com/noah-isme/compass-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	ResultsHandler    *handler.ResultsHandler
	CatalogHandler    *handler.CatalogHandler
	SeedHandler       *handler.SeedHandler
	HealthProbes      map[string]handler.HealthProbe
	JWTMiddleware     fiber.Handler
	// AssessLimiter guards the recording endpoint. Nil disables rate limiting.
	AssessLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	if deps.AssessmentHandler != nil {
		teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleTeacher))
		var guards []fiber.Handler
		if deps.AssessLimiter != nil {
			guards = append(guards, deps.AssessLimiter)
		}
		deps.AssessmentHandler.Register(teacher, guards...)
	}

	if deps.ResultsHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleStudent))
		deps.ResultsHandler.RegisterStudent(student)

		parent := api.Group("/parent", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleParent))
		deps.ResultsHandler.RegisterParent(parent)
	}

	if deps.CatalogHandler != nil {
		catalog := api.Group("/catalog", jwtMiddleware)
		deps.CatalogHandler.Register(catalog, func(next fiber.Handler) fiber.Handler {
			return middleware.WithAuth(next, middleware.AuthOptions{RequireUser: true})
		})
	}

	// Seeding is authenticated by the X-Seed-Token header, not a user session.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/tools/seed"))
	}
}
