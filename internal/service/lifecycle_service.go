package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// EscalationReasonSLA is recorded when the sweep escalates a ticket.
const EscalationReasonSLA = "SLA escalation threshold reached"

// LifecycleService coordinates ticket status, first response, escalation and
// SLA queries.
type LifecycleService struct {
	tickets  repository.TicketRepository
	history  repository.TicketHistoryRepository
	workload *WorkloadService
	audit    auditTrail
	events   publisher
	clock    Clock
	logger   *zap.Logger

	dueSoonWindow time.Duration
	sweepBatch    int
	notifiedMu    sync.Mutex
	notified      map[events.EventType]map[string]struct{}
}

// LifecycleDependencies bundles collaborators.
type LifecycleDependencies struct {
	TicketRepo    repository.TicketRepository
	HistoryRepo   repository.TicketHistoryRepository
	Workload      *WorkloadService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Clock         Clock
	DueSoonWindow time.Duration
	SweepBatch    int
}

// NewLifecycleService creates the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := orNop(deps.Logger)
	window := deps.DueSoonWindow
	if window <= 0 {
		window = 2 * time.Hour
	}
	batch := deps.SweepBatch
	if batch <= 0 {
		batch = 500
	}
	return &LifecycleService{
		tickets:       deps.TicketRepo,
		history:       deps.HistoryRepo,
		workload:      deps.Workload,
		audit:         auditTrail{repo: deps.HistoryRepo, logger: logger},
		events:        publisher{dispatcher: deps.Dispatcher, logger: logger},
		clock:         orSystemClock(deps.Clock),
		logger:        logger,
		dueSoonWindow: window,
		sweepBatch:    batch,
		notified: map[events.EventType]map[string]struct{}{
			events.EventTicketDueSoon: {},
			events.EventTicketOverdue: {},
		},
	}
}

// OpenTicketInput describes intake payload.
type OpenTicketInput struct {
	Title         string
	Priority      domain.TicketPriority
	CategoryID    *string
	ApplicationID *string
	DueDate       *time.Time
}

// OpenTicket creates a ticket in status open. The due date defaults to the
// SLA deadline.
func (s *LifecycleService) OpenTicket(ctx context.Context, rc domain.RequestContext, input OpenTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	if input.ApplicationID == nil && input.CategoryID == nil {
		return nil, apperrors.NewValidationError("application_id or category_id is required", nil)
	}

	now := s.clock()
	ticket := &domain.Ticket{
		ID:              uuid.NewString(),
		TicketNumber:    generateTicketNumber(),
		Title:           title,
		Priority:        priority,
		InitialPriority: priority,
		CategoryID:      input.CategoryID,
		ApplicationID:   input.ApplicationID,
		Status:          domain.TicketStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.DueDate != nil {
		due := *input.DueDate
		ticket.DueDate = &due
	} else {
		due := domain.SLADeadline(ticket)
		ticket.DueDate = &due
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapWriteError("ticket", ticket.ID, err)
	}
	s.audit.record(ctx, rc, domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeCreated,
		NewValue: map[string]any{
			"status":   ticket.Status,
			"priority": ticket.Priority,
		},
		CreatedAt: now,
	})
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Actor:     rc.Actor,
		Timestamp: now,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Title:        ticket.Title,
			Priority:     ticket.Priority,
			DueDate:      ticket.DueDate,
		},
	})
	return ticket, nil
}

// TransitionStatus moves a ticket along the transition table. Rejected
// transitions never reach the repository. When the ticket enters or leaves
// the workload-counting set, the assignee's workload is recomputed.
func (s *LifecycleService) TransitionStatus(ctx context.Context, rc domain.RequestContext, ticketID string, next domain.TicketStatus, notes string) (*domain.Ticket, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": next})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}

	old := ticket.Status
	now := s.clock()
	if err := ticket.TransitionTo(next, now); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, apperrors.NewInvalidTransition(string(old), string(next))
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError("ticket", ticketID, err)
	}

	s.audit.record(ctx, rc, domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": old},
		NewValue:   map[string]any{"status": next},
		Notes:      notes,
		CreatedAt:  now,
	})
	if ticket.AssignedTechnicianID != nil && old.CountsTowardWorkload() != next.CountsTowardWorkload() && s.workload != nil {
		s.workload.recomputeQuietly(ctx, *ticket.AssignedTechnicianID)
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		Actor:     rc.Actor,
		Timestamp: now,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
			Notes:     notes,
		},
	})
	return ticket, nil
}

// MarkFirstResponse stamps the first response time once. Later calls return
// the ticket without writing.
func (s *LifecycleService) MarkFirstResponse(ctx context.Context, rc domain.RequestContext, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	now := s.clock()
	if !ticket.MarkFirstResponse(now) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError("ticket", ticketID, err)
	}
	s.audit.record(ctx, rc, domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeFirstResponse,
		NewValue:   map[string]any{"first_response_at": now},
		CreatedAt:  now,
	})
	return ticket, nil
}

// Escalate flags a ticket. Status is unchanged and an already escalated
// ticket is returned as-is.
func (s *LifecycleService) Escalate(ctx context.Context, rc domain.RequestContext, ticketID, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason is required", map[string]any{"field": "reason"})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	if ticket.IsEscalated {
		return ticket, nil
	}
	if err := s.escalate(ctx, rc, ticket, reason); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *LifecycleService) escalate(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, reason string) error {
	now := s.clock()
	ticket.Escalate(reason, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return mapWriteError("ticket", ticket.ID, err)
	}
	s.audit.record(ctx, rc, domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeEscalation,
		OldValue:   map[string]any{"is_escalated": false},
		NewValue:   map[string]any{"is_escalated": true, "reason": reason},
		Notes:      reason,
		CreatedAt:  now,
	})
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     rc.Actor,
		Timestamp: now,
		Payload: events.TicketEscalatedPayload{
			Reason:   reason,
			Priority: ticket.Priority,
		},
	})
	return nil
}

// SLAStatus reports deadline and escalation state at the current time.
func (s *LifecycleService) SLAStatus(ctx context.Context, ticketID string) (domain.SLAStatus, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domain.SLAStatus{}, mapReadError("ticket", ticketID, err)
	}
	return domain.EvaluateSLA(ticket, s.clock()), nil
}

// GetTicket loads a ticket.
func (s *LifecycleService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	return ticket, nil
}

// ListHistory returns the ticket's audit trail, oldest first.
func (s *LifecycleService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	if s.history == nil {
		return nil, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// SweepResult summarizes one pass over unresolved tickets.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Escalated int `json:"escalated"`
	DueSoon   int `json:"due_soon"`
	Overdue   int `json:"overdue"`
	Errors    int `json:"errors"`
}

// SweepDeadlines escalates tickets past the escalation point and emits
// due-soon and overdue notifications. Each notification kind is emitted at
// most once per ticket while it stays unresolved; a ticket that is resolved
// and later reopened can be notified again.
func (s *LifecycleService) SweepDeadlines(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	tickets, err := s.tickets.ListUnresolved(ctx, s.sweepBatch)
	if err != nil {
		return res, apperrors.MapError(err)
	}
	// A short page holds every unresolved ticket, so anything else we
	// remember has left the backlog.
	if len(tickets) < s.sweepBatch {
		s.forgetNotified(tickets)
	}
	rc := domain.SystemRequest()
	for i := range tickets {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		ticket := &tickets[i]
		res.Scanned++
		now := s.clock()

		if domain.NeedsEscalation(ticket, now) {
			if err := s.escalate(ctx, rc, ticket, EscalationReasonSLA); err != nil {
				res.Errors++
				s.logger.Warn("sla escalation failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			} else {
				res.Escalated++
			}
		}

		deadline := domain.SLADeadline(ticket)
		if ticket.DueDate != nil {
			deadline = *ticket.DueDate
		}
		switch {
		case !now.Before(deadline):
			if s.markNotified(events.EventTicketOverdue, ticket.ID) {
				s.publishDeadline(ctx, events.EventTicketOverdue, ticket, deadline, now)
				res.Overdue++
			}
		case deadline.Sub(now) <= s.dueSoonWindow:
			if s.markNotified(events.EventTicketDueSoon, ticket.ID) {
				s.publishDeadline(ctx, events.EventTicketDueSoon, ticket, deadline, now)
				res.DueSoon++
			}
		}
	}
	return res, nil
}

func (s *LifecycleService) markNotified(kind events.EventType, ticketID string) bool {
	s.notifiedMu.Lock()
	defer s.notifiedMu.Unlock()
	seen := s.notified[kind]
	if _, ok := seen[ticketID]; ok {
		return false
	}
	seen[ticketID] = struct{}{}
	return true
}

func (s *LifecycleService) forgetNotified(unresolved []domain.Ticket) {
	live := make(map[string]struct{}, len(unresolved))
	for i := range unresolved {
		live[unresolved[i].ID] = struct{}{}
	}
	s.notifiedMu.Lock()
	defer s.notifiedMu.Unlock()
	for _, seen := range s.notified {
		for id := range seen {
			if _, ok := live[id]; !ok {
				delete(seen, id)
			}
		}
	}
}

func (s *LifecycleService) publishDeadline(ctx context.Context, kind events.EventType, ticket *domain.Ticket, deadline, now time.Time) {
	s.events.publish(ctx, events.Event{
		Type:      kind,
		TicketID:  ticket.ID,
		Actor:     domain.SystemActor(),
		Timestamp: now,
		Payload: events.TicketDeadlinePayload{
			Deadline:             deadline,
			Priority:             ticket.Priority,
			AssignedTechnicianID: ticket.AssignedTechnicianID,
		},
	})
}
