package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/scoring"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	assignReasonManual    = "manual"
	assignReasonAuto      = "auto"
	assignReasonRebalance = "rebalance"
)

// AssignmentService selects technicians for tickets and keeps load balanced.
type AssignmentService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	workload    *WorkloadService
	audit       auditTrail
	events      publisher
	clock       Clock
	logger      *zap.Logger

	overloadThreshold float64
	rebalanceBatch    int
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo        repository.TicketRepository
	TechnicianRepo    repository.TechnicianRepository
	HistoryRepo       repository.TicketHistoryRepository
	Workload          *WorkloadService
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Clock             Clock
	OverloadThreshold float64
	RebalanceBatch    int
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := orNop(deps.Logger)
	threshold := deps.OverloadThreshold
	if threshold <= 0 {
		threshold = 100
	}
	batch := deps.RebalanceBatch
	if batch <= 0 {
		batch = 2
	}
	return &AssignmentService{
		tickets:           deps.TicketRepo,
		technicians:       deps.TechnicianRepo,
		workload:          deps.Workload,
		audit:             auditTrail{repo: deps.HistoryRepo, logger: logger},
		events:            publisher{dispatcher: deps.Dispatcher, logger: logger},
		clock:             orSystemClock(deps.Clock),
		logger:            logger,
		overloadThreshold: threshold,
		rebalanceBatch:    batch,
	}
}

// AssignToTechnician assigns a ticket to a named technician. Status is not
// changed.
func (s *AssignmentService) AssignToTechnician(ctx context.Context, rc domain.RequestContext, ticketID, technicianID, notes string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		return nil, mapReadError("technician", technicianID, err)
	}
	if !tech.IsActive() {
		return nil, apperrors.NewConflict("technician inactive", map[string]any{"technician_id": technicianID})
	}
	if ticket.AssignedTo(tech.ID) {
		return ticket, nil
	}
	if err := s.commitAssignment(ctx, rc, ticket, tech.ID, nil, assignReasonManual, notes); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AutoAssign assigns the ticket to the best eligible technician. It returns
// (nil, nil) when nobody is eligible, in which case nothing is written.
func (s *AssignmentService) AutoAssign(ctx context.Context, rc domain.RequestContext, ticketID string) (*domain.Technician, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapReadError("ticket", ticketID, err)
	}
	best, err := s.FindBestTechnician(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if best == nil {
		s.logger.Info("no eligible technician", zap.String("ticket_id", ticket.ID))
		return nil, nil
	}
	if ticket.AssignedTo(best.Technician.ID) {
		return best.Technician, nil
	}
	score := best.Score.Total
	if err := s.commitAssignment(ctx, rc, ticket, best.Technician.ID, &score, assignReasonAuto, ""); err != nil {
		return nil, err
	}
	return best.Technician, nil
}

// FindBestTechnician ranks the eligible pool for ticket. Technicians listed in
// exclude are skipped. A nil candidate means the pool was empty.
func (s *AssignmentService) FindBestTechnician(ctx context.Context, ticket *domain.Ticket, exclude ...string) (*scoring.Candidate, error) {
	techs, err := s.technicians.ListCandidates(ctx, ticket.ApplicationID, ticket.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	policy := s.policy()
	pool := scoring.EligiblePool(policy, techs, ticket, exclude...)
	return scoring.SelectBest(policy, pool, ticket), nil
}

// RebalanceResult summarizes a rebalancing pass.
type RebalanceResult struct {
	Overloaded int `json:"overloaded"`
	Reassigned int `json:"reassigned"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// Rebalance moves up to the batch size of low and medium priority tickets
// away from each technician whose workload score exceeds the overload
// threshold. Failures are counted and do not stop the pass. Urgent and high
// tickets are never moved.
func (s *AssignmentService) Rebalance(ctx context.Context, rc domain.RequestContext) (RebalanceResult, error) {
	var res RebalanceResult
	donors, err := s.technicians.ListOverloaded(ctx, s.overloadThreshold)
	if err != nil {
		return res, apperrors.MapError(err)
	}
	res.Overloaded = len(donors)

	for _, donor := range donors {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		active, err := s.tickets.ListActiveByTechnician(ctx, donor.ID)
		if err != nil {
			res.Errors++
			s.logger.Warn("rebalance: load donor tickets", zap.String("technician_id", donor.ID), zap.Error(err))
			continue
		}

		for _, ticket := range movableTickets(active, s.rebalanceBatch) {
			best, err := s.FindBestTechnician(ctx, &ticket, donor.ID)
			if err != nil {
				res.Errors++
				s.logger.Warn("rebalance: candidate lookup", zap.String("ticket_id", ticket.ID), zap.Error(err))
				continue
			}
			if best == nil {
				res.Skipped++
				continue
			}
			score := best.Score.Total
			if err := s.commitAssignment(ctx, rc, &ticket, best.Technician.ID, &score, assignReasonRebalance, ""); err != nil {
				res.Errors++
				s.logger.Warn("rebalance: reassign",
					zap.String("ticket_id", ticket.ID),
					zap.String("from", donor.ID),
					zap.String("to", best.Technician.ID),
					zap.Error(err))
				continue
			}
			res.Reassigned++
		}
	}

	if res.Overloaded > 0 {
		s.logger.Info("rebalance finished",
			zap.Int("overloaded", res.Overloaded),
			zap.Int("reassigned", res.Reassigned),
			zap.Int("skipped", res.Skipped),
			zap.Int("errors", res.Errors))
	}
	return res, nil
}

// movableTickets picks up to limit low/medium tickets, lowest priority first
// and then oldest first. Cancelled tickets stay with their holder.
func movableTickets(active []domain.Ticket, limit int) []domain.Ticket {
	var out []domain.Ticket
	for _, t := range active {
		if t.Priority.Movable() && t.Status != domain.TicketStatusCancelled {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// commitAssignment persists the assignment and then runs the follow-up steps
// (audit, workload recompute for both holders, notification). Only the ticket
// write can fail the call.
func (s *AssignmentService) commitAssignment(ctx context.Context, rc domain.RequestContext, ticket *domain.Ticket, technicianID string, score *float64, reason, notes string) error {
	var previous *string
	if ticket.AssignedTechnicianID != nil {
		prev := *ticket.AssignedTechnicianID
		previous = &prev
	}

	now := s.clock()
	ticket.AssignTo(technicianID, rc.Actor, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return mapWriteError("ticket", ticket.ID, err)
	}

	newValue := map[string]any{"technician_id": technicianID, "reason": reason}
	if score != nil {
		newValue["score"] = *score
	}
	s.audit.record(ctx, rc, domain.TicketHistory{
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeAssignee,
		OldValue:   map[string]any{"technician_id": previous},
		NewValue:   newValue,
		Notes:      notes,
		CreatedAt:  now,
	})

	if s.workload != nil {
		s.workload.recomputeQuietly(ctx, technicianID)
		if previous != nil && *previous != technicianID {
			s.workload.recomputeQuietly(ctx, *previous)
		}
	}

	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     rc.Actor,
		Timestamp: now,
		Payload: events.TicketAssignedPayload{
			TechnicianID:         technicianID,
			PreviousTechnicianID: previous,
			Score:                score,
			Reason:               reason,
		},
	})
	return nil
}

func (s *AssignmentService) policy() domain.CapacityPolicy {
	if s.workload != nil {
		return s.workload.Policy()
	}
	return domain.DefaultCapacityPolicy()
}
