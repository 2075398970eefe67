package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// MaintenanceHandler triggers the periodic jobs on demand.
type MaintenanceHandler struct {
	assignment *service.AssignmentService
	lifecycle  *service.LifecycleService
	metrics    *observability.Metrics
}

// NewMaintenanceHandler constructs handler.
func NewMaintenanceHandler(assignment *service.AssignmentService, lifecycle *service.LifecycleService, metrics *observability.Metrics) *MaintenanceHandler {
	return &MaintenanceHandler{assignment: assignment, lifecycle: lifecycle, metrics: metrics}
}

// Rebalance POST /maintenance/rebalance.
func (h *MaintenanceHandler) Rebalance(c *fiber.Ctx) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	result, err := h.assignment.Rebalance(c.UserContext(), rc)
	if err != nil {
		return err
	}
	h.metrics.AddEngine("rebalance.reassigned", result.Reassigned)
	h.metrics.AddEngine("rebalance.errors", result.Errors)
	return c.JSON(fiber.Map{"data": result})
}

// SweepDeadlines POST /maintenance/sweep.
func (h *MaintenanceHandler) SweepDeadlines(c *fiber.Ctx) error {
	result, err := h.lifecycle.SweepDeadlines(c.UserContext())
	if err != nil {
		return err
	}
	h.metrics.AddEngine("sweep.escalated", result.Escalated)
	return c.JSON(fiber.Map{"data": result})
}

// Metrics GET /metrics.
func (h *MaintenanceHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
