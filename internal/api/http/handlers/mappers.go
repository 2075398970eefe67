package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func requestContext(c *fiber.Ctx) (domain.RequestContext, error) {
	rc, ok := auth.RequestContextFrom(c)
	if !ok {
		return domain.RequestContext{}, apperrors.NewUnauthorized("actor required")
	}
	return rc, nil
}

func actorResponse(a domain.Actor) dto.ActorResponse {
	return dto.ActorResponse{Kind: a.Kind, ID: a.ID}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:                    ticket.ID,
		TicketNumber:          ticket.TicketNumber,
		Title:                 ticket.Title,
		Status:                ticket.Status,
		Priority:              ticket.Priority,
		CategoryID:            ticket.CategoryID,
		ApplicationID:         ticket.ApplicationID,
		AssignedTechnicianID:  ticket.AssignedTechnicianID,
		AssignedAt:            ticket.AssignedAt,
		IsEscalated:           ticket.IsEscalated,
		EscalationReason:      ticket.EscalationReason,
		EscalatedAt:           ticket.EscalatedAt,
		DueDate:               ticket.DueDate,
		FirstResponseAt:       ticket.FirstResponseAt,
		ResolvedAt:            ticket.ResolvedAt,
		ClosedAt:              ticket.ClosedAt,
		ResolutionTimeMinutes: ticket.ResolutionTimeMinutes,
		AllowedTransitions:    domain.AllowedTransitions(ticket.Status),
		Version:               ticket.Version,
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
	if ticket.AssignedBy != nil {
		by := actorResponse(*ticket.AssignedBy)
		resp.AssignedBy = &by
	}
	return resp
}

func technicianResponse(policy domain.CapacityPolicy, tech *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:                   tech.ID,
		Name:                 tech.Name,
		Department:           tech.Department,
		Status:               tech.Status,
		ActiveTicketCount:    tech.ActiveTicketCount,
		WorkloadScore:        tech.WorkloadScore,
		WorkloadPercentage:   policy.WorkloadPercentage(tech),
		EffectiveMaxTickets:  policy.EffectiveMaxTickets(tech),
		IsAvailable:          policy.IsAvailable(tech),
		CanAcceptTickets:     policy.CanAcceptTickets(tech),
		IsBusy:               policy.IsBusy(tech),
		Rating:               tech.Rating,
		ExperienceYears:      tech.ExperienceYears,
		ApplicationExpertise: tech.ApplicationExpertise,
		CategoryExpertise:    tech.CategoryExpertise,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ChangedBy:  actorResponse(entry.ChangedBy),
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Notes:      entry.Notes,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}

func slaResponse(status domain.SLAStatus) dto.SLAResponse {
	return dto.SLAResponse{
		TicketID:         status.TicketID,
		Priority:         status.Priority,
		Deadline:         status.Deadline,
		EscalationAt:     status.EscalationAt,
		WithinSLA:        status.WithinSLA,
		NeedsEscalation:  status.NeedsEscalation,
		RemainingMinutes: int64(status.Remaining / time.Minute),
	}
}
