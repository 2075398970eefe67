package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// OpenTicketRequest payload.
type OpenTicketRequest struct {
	Title         string                `json:"title"`
	Priority      domain.TicketPriority `json:"priority"`
	CategoryID    *string               `json:"category_id"`
	ApplicationID *string               `json:"application_id"`
	DueDate       *time.Time            `json:"due_date"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
	Notes  string              `json:"notes"`
}

// AssignRequest payload.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
	Notes        string `json:"notes"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// ActorResponse identifies who performed an action.
type ActorResponse struct {
	Kind domain.ActorKind `json:"kind"`
	ID   string           `json:"id,omitempty"`
}

// TicketResponse represents the full ticket state.
type TicketResponse struct {
	ID                    string                `json:"id"`
	TicketNumber          string                `json:"ticket_number"`
	Title                 string                `json:"title"`
	Status                domain.TicketStatus   `json:"status"`
	Priority              domain.TicketPriority `json:"priority"`
	CategoryID            *string               `json:"category_id"`
	ApplicationID         *string               `json:"application_id"`
	AssignedTechnicianID  *string               `json:"assigned_technician_id"`
	AssignedBy            *ActorResponse        `json:"assigned_by"`
	AssignedAt            *time.Time            `json:"assigned_at"`
	IsEscalated           bool                  `json:"is_escalated"`
	EscalationReason      *string               `json:"escalation_reason"`
	EscalatedAt           *time.Time            `json:"escalated_at"`
	DueDate               *time.Time            `json:"due_date"`
	FirstResponseAt       *time.Time            `json:"first_response_at"`
	ResolvedAt            *time.Time            `json:"resolved_at"`
	ClosedAt              *time.Time            `json:"closed_at"`
	ResolutionTimeMinutes *int                  `json:"resolution_time_minutes"`
	AllowedTransitions    []domain.TicketStatus `json:"allowed_transitions"`
	Version               int64                 `json:"version"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// TicketHistoryResponse is a single audit entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  ActorResponse           `json:"changed_by"`
	OldValue   map[string]any          `json:"old_value,omitempty"`
	NewValue   map[string]any          `json:"new_value,omitempty"`
	Notes      string                  `json:"notes,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// SLAResponse reports a ticket's clock at request time.
type SLAResponse struct {
	TicketID         string                `json:"ticket_id"`
	Priority         domain.TicketPriority `json:"priority"`
	Deadline         time.Time             `json:"deadline"`
	EscalationAt     time.Time             `json:"escalation_at"`
	WithinSLA        bool                  `json:"within_sla"`
	NeedsEscalation  bool                  `json:"needs_escalation"`
	RemainingMinutes int64                 `json:"remaining_minutes"`
}

// AutoAssignResponse reports the outcome of automatic assignment.
type AutoAssignResponse struct {
	Assigned   bool                `json:"assigned"`
	Technician *TechnicianResponse `json:"technician,omitempty"`
}
