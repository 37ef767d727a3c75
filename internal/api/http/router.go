package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Tickets *handlers.TicketsHandler
	Gate    *auth.Gate
}

// RegisterRoutes wires HTTP routes. Role sets per endpoint: an empty
// Require() still demands an authenticated caller.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/login", cfg.Auth.Login)
	app.Post("/users", cfg.Users.Register)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Gate.Require(domain.RoleCustomer), cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Gate.Require(), cfg.Tickets.ListTickets)
	tickets.Get("/resolved-report", cfg.Gate.Require(domain.RoleSupportAgent), cfg.Tickets.ResolvedReport)
	tickets.Put("/:id", cfg.Gate.Require(domain.RoleCustomer), cfg.Tickets.UpdateTicket)
	tickets.Get("/:id", cfg.Gate.Require(), cfg.Tickets.GetTicket)
	tickets.Get("/:id/replies", cfg.Gate.Require(), cfg.Tickets.ListReplies)
	tickets.Post("/:id/replies", cfg.Gate.Require(domain.RoleCustomer, domain.RoleSupportAgent), cfg.Tickets.CreateReply)
}
