package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus        TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee      TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeEscalation    TicketChangeType = "ESCALATION"
	ChangeTypeFirstResponse TicketChangeType = "FIRST_RESPONSE"
	ChangeTypeCreated       TicketChangeType = "CREATED"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID         string
	TicketID   string
	ChangedBy  Actor
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	Notes      string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
