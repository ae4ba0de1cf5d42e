package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pomboexe/support-desk/internal/api/http/handlers"
	"github.com/pomboexe/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Knowledge      *handlers.KnowledgeHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", auth.RequireAdmin(), cfg.Tickets.List)
	tickets.Get("/my", cfg.Tickets.ListMine)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequireAdmin(), cfg.Tickets.Update)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)

	// Assignment workflow. Ownership and transfer preconditions are enforced
	// by the service; the routes only require an agent session.
	tickets.Post("/:id/assign", auth.RequireAdmin(), cfg.Tickets.Assign)
	tickets.Post("/:id/request-transfer", auth.RequireAdmin(), cfg.Tickets.RequestTransfer)
	tickets.Post("/:id/accept-transfer", auth.RequireAdmin(), cfg.Tickets.AcceptTransfer)
	tickets.Post("/:id/reject-transfer", auth.RequireAdmin(), cfg.Tickets.RejectTransfer)
	tickets.Post("/:id/unassign", auth.RequireAdmin(), cfg.Tickets.Unassign)

	conversations := app.Group("/conversations", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	conversations.Get("/:id", cfg.Tickets.GetConversation)

	knowledge := app.Group("/knowledge", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	knowledge.Get("/", cfg.Knowledge.List)
	knowledge.Post("/", cfg.Knowledge.Create)
	knowledge.Delete("/:id", cfg.Knowledge.Delete)
}
