package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Locations      *handlers.LocationsHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	locations := app.Group("/locations", cfg.AuthMiddleware.Handle)
	locations.Get("/roots", cfg.Locations.Roots)
	locations.Get("/lookup", cfg.Locations.LookupRoot)
	locations.Post("/", cfg.Locations.Create)
	locations.Get("/:id", cfg.Locations.Get)
	locations.Put("/:id", cfg.Locations.Update)
	locations.Delete("/:id", cfg.Locations.Delete)
	locations.Get("/:id/children", cfg.Locations.Children)
	locations.Get("/:id/root", cfg.Locations.Root)
	locations.Get("/:id/descendants", cfg.Locations.Descendants)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/maintenance/close-resolved", cfg.Tickets.CloseResolved)
	tickets.Post("/maintenance/auto-close", cfg.Tickets.AutoClose)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/status", cfg.Tickets.Transition)
}
