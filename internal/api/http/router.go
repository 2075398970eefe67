package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Assignment     *handlers.AssignmentHandler
	Technicians    *handlers.TechniciansHandler
	Maintenance    *handlers.MaintenanceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Maintenance.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.OpenTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Get("/:id/sla", cfg.Tickets.SLAStatus)
	tickets.Post("/:id/transitions", cfg.Tickets.Transition)
	tickets.Post("/:id/first-response", cfg.Tickets.MarkFirstResponse)
	tickets.Post("/:id/escalate", cfg.Tickets.Escalate)
	tickets.Post("/:id/assignment", cfg.Assignment.Assign)
	tickets.Post("/:id/auto-assign", cfg.Assignment.AutoAssign)

	technicians := api.Group("/technicians")
	technicians.Get("/:id", cfg.Technicians.GetTechnician)
	technicians.Post("/:id/workload", cfg.Technicians.RecomputeWorkload)

	maintenance := api.Group("/maintenance")
	maintenance.Post("/rebalance", cfg.Maintenance.Rebalance)
	maintenance.Post("/sweep", cfg.Maintenance.SweepDeadlines)
}
