package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AssignmentHandler exposes manual and automatic assignment.
type AssignmentHandler struct {
	assignment *service.AssignmentService
	workload   *service.WorkloadService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignment *service.AssignmentService, workload *service.WorkloadService) *AssignmentHandler {
	return &AssignmentHandler{assignment: assignment, workload: workload}
}

// Assign POST /tickets/:id/assignment.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TechnicianID) == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	ticket, err := h.assignment.AssignToTechnician(c.UserContext(), rc, c.Params("id"), req.TechnicianID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AutoAssign POST /tickets/:id/auto-assign. An empty pool is not an error.
func (h *AssignmentHandler) AutoAssign(c *fiber.Ctx) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	tech, err := h.assignment.AutoAssign(c.UserContext(), rc, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.AutoAssignResponse{Assigned: tech != nil}
	if tech != nil {
		t := technicianResponse(h.workload.Policy(), tech)
		resp.Technician = &t
	}
	return c.JSON(fiber.Map{"data": resp})
}
