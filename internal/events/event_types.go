package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketDueSoon       EventType = "ticket_due_soon"
	EventTicketOverdue       EventType = "ticket_overdue"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   any          `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	DueDate      *time.Time            `json:"due_date,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Notes     string              `json:"notes,omitempty"`
}

// TicketAssignedPayload payload. Score is nil for manual assignments.
type TicketAssignedPayload struct {
	TechnicianID         string   `json:"technician_id"`
	PreviousTechnicianID *string  `json:"previous_technician_id,omitempty"`
	Score                *float64 `json:"score,omitempty"`
	Reason               string   `json:"reason"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Reason   string                `json:"reason"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketDeadlinePayload is shared by due-soon and overdue events.
type TicketDeadlinePayload struct {
	Deadline             time.Time             `json:"deadline"`
	Priority             domain.TicketPriority `json:"priority"`
	AssignedTechnicianID *string               `json:"assigned_technician_id,omitempty"`
}
