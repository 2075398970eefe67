package domain

import (
	"errors"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusAssigned     TicketStatus = "assigned"
	TicketStatusInProgress   TicketStatus = "in_progress"
	TicketStatusWaitingUser  TicketStatus = "waiting_user"
	TicketStatusWaitingAdmin TicketStatus = "waiting_admin"
	TicketStatusResolved     TicketStatus = "resolved"
	TicketStatusClosed       TicketStatus = "closed"
	TicketStatusCancelled    TicketStatus = "cancelled"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusWaitingUser,
	TicketStatusWaitingAdmin,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsCompleted is true for resolved and closed tickets.
func (s TicketStatus) IsCompleted() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// CountsTowardWorkload reports whether a ticket in this status is part of a
// technician's active set.
func (s TicketStatus) CountsTowardWorkload() bool {
	return !s.IsCompleted()
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from low (1) to urgent (4).
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Movable reports whether rebalancing may move a ticket of this priority.
func (p TicketPriority) Movable() bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium
}

// ErrInvalidTransition is returned when the target status is not reachable
// from the current one.
var ErrInvalidTransition = errors.New("invalid status transition")

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:         {TicketStatusAssigned, TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusAssigned:     {TicketStatusInProgress, TicketStatusOpen, TicketStatusCancelled},
	TicketStatusInProgress:   {TicketStatusWaitingUser, TicketStatusWaitingAdmin, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusWaitingUser:  {TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusWaitingAdmin: {TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusResolved:     {TicketStatusClosed},
	TicketStatusClosed:       {TicketStatusOpen},
	TicketStatusCancelled:    {TicketStatusOpen},
}

// CanTransition reports whether next is reachable from current in one step.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the targets reachable from s.
func AllowedTransitions(s TicketStatus) []TicketStatus {
	return append([]TicketStatus(nil), allowedTransitions[s]...)
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                    string
	TicketNumber          string
	Title                 string
	Priority              TicketPriority
	InitialPriority       TicketPriority
	CategoryID            *string
	ApplicationID         *string
	Status                TicketStatus
	CreatedAt             time.Time
	UpdatedAt             time.Time
	FirstResponseAt       *time.Time
	ResolvedAt            *time.Time
	ClosedAt              *time.Time
	DueDate               *time.Time
	ResolutionTimeMinutes *int
	AssignedTechnicianID  *string
	AssignedBy            *Actor
	AssignedAt            *time.Time
	IsEscalated           bool
	EscalationReason      *string
	EscalatedAt           *time.Time
	Version               int64
}

// TransitionTo moves the ticket to next, stamping lifecycle timestamps. The
// ticket is left untouched when the transition is not allowed.
func (t *Ticket) TransitionTo(next TicketStatus, now time.Time) error {
	if !CanTransition(t.Status, next) {
		return ErrInvalidTransition
	}
	t.Status = next
	switch next {
	case TicketStatusResolved:
		if t.ResolvedAt == nil {
			stamp := now
			t.ResolvedAt = &stamp
			t.UpdateResolutionTime()
		}
	case TicketStatusClosed:
		if t.ClosedAt == nil {
			stamp := now
			t.ClosedAt = &stamp
		}
	}
	t.UpdatedAt = now
	return nil
}

// MarkFirstResponse records the first response time once. It returns true
// when the timestamp was set by this call.
func (t *Ticket) MarkFirstResponse(now time.Time) bool {
	if t.FirstResponseAt != nil {
		return false
	}
	stamp := now
	t.FirstResponseAt = &stamp
	t.UpdatedAt = now
	return true
}

// ResolutionTime returns whole minutes between creation and resolution, or
// nil when either timestamp is missing.
func (t *Ticket) ResolutionTime() *int {
	if t.ResolvedAt == nil || t.CreatedAt.IsZero() {
		return nil
	}
	minutes := int(t.ResolvedAt.Sub(t.CreatedAt) / time.Minute)
	return &minutes
}

// UpdateResolutionTime stores the derived resolution time on the ticket.
func (t *Ticket) UpdateResolutionTime() {
	t.ResolutionTimeMinutes = t.ResolutionTime()
}

// Escalate flags the ticket for urgent attention without touching status.
func (t *Ticket) Escalate(reason string, now time.Time) {
	t.IsEscalated = true
	r := reason
	t.EscalationReason = &r
	stamp := now
	t.EscalatedAt = &stamp
	t.UpdatedAt = now
}

// AssignTo records the technician and the actor that made the assignment.
func (t *Ticket) AssignTo(technicianID string, by Actor, now time.Time) {
	id := technicianID
	t.AssignedTechnicianID = &id
	actor := by
	t.AssignedBy = &actor
	stamp := now
	t.AssignedAt = &stamp
	t.UpdatedAt = now
}

// AssignedTo reports whether the ticket is held by technicianID.
func (t *Ticket) AssignedTo(technicianID string) bool {
	return t.AssignedTechnicianID != nil && *t.AssignedTechnicianID == technicianID
}
