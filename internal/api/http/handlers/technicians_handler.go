package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TechniciansHandler exposes capacity views.
type TechniciansHandler struct {
	workload *service.WorkloadService
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(workload *service.WorkloadService) *TechniciansHandler {
	return &TechniciansHandler{workload: workload}
}

// GetTechnician GET /technicians/:id.
func (h *TechniciansHandler) GetTechnician(c *fiber.Ctx) error {
	tech, err := h.workload.GetTechnician(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(h.workload.Policy(), tech)})
}

// RecomputeWorkload POST /technicians/:id/workload.
func (h *TechniciansHandler) RecomputeWorkload(c *fiber.Ctx) error {
	tech, err := h.workload.Recompute(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(h.workload.Policy(), tech)})
}
