package domain

import "time"

// EscalationThreshold is the fraction of the SLA budget after which an
// unresolved ticket is escalated ahead of an actual breach.
const EscalationThreshold = 0.75

var slaHours = map[TicketPriority]int{
	TicketPriorityLow:    72,
	TicketPriorityMedium: 48,
	TicketPriorityHigh:   24,
	TicketPriorityUrgent: 8,
}

// SLAHours returns the resolution budget for a priority. Unknown priorities
// get the medium budget.
func SLAHours(p TicketPriority) int {
	if h, ok := slaHours[p]; ok {
		return h
	}
	return slaHours[TicketPriorityMedium]
}

// SLABudget is SLAHours as a duration.
func SLABudget(p TicketPriority) time.Duration {
	return time.Duration(SLAHours(p)) * time.Hour
}

// SLADeadline returns created_at plus the priority budget.
func SLADeadline(t *Ticket) time.Time {
	return t.CreatedAt.Add(SLABudget(t.Priority))
}

// EscalationPoint is the moment the ticket crosses the escalation threshold.
func EscalationPoint(t *Ticket) time.Time {
	budget := float64(SLABudget(t.Priority)) * EscalationThreshold
	return t.CreatedAt.Add(time.Duration(budget))
}

// NeedsEscalation reports whether an unescalated, uncompleted ticket has used
// at least 75% of its SLA budget.
func NeedsEscalation(t *Ticket, now time.Time) bool {
	if t.IsEscalated || t.Status.IsCompleted() {
		return false
	}
	return !now.Before(EscalationPoint(t))
}

// IsWithinSLA treats completed tickets as in time; otherwise compares now
// against the deadline.
func IsWithinSLA(t *Ticket, now time.Time) bool {
	if t.Status.IsCompleted() {
		return true
	}
	return now.Before(SLADeadline(t))
}

// MetSLA reports whether a resolved ticket was resolved by the deadline that
// applied to its priority at creation. Unresolved tickets never meet it.
func MetSLA(t *Ticket) bool {
	if t.ResolvedAt == nil {
		return false
	}
	priority := t.InitialPriority
	if priority == "" {
		priority = t.Priority
	}
	deadline := t.CreatedAt.Add(SLABudget(priority))
	return !t.ResolvedAt.After(deadline)
}

// SLAStatus summarizes a ticket's clock at a given instant.
type SLAStatus struct {
	TicketID        string
	Priority        TicketPriority
	Deadline        time.Time
	EscalationAt    time.Time
	WithinSLA       bool
	NeedsEscalation bool
	Remaining       time.Duration
}

// EvaluateSLA computes the SLA status of t at now.
func EvaluateSLA(t *Ticket, now time.Time) SLAStatus {
	deadline := SLADeadline(t)
	return SLAStatus{
		TicketID:        t.ID,
		Priority:        t.Priority,
		Deadline:        deadline,
		EscalationAt:    EscalationPoint(t),
		WithinSLA:       IsWithinSLA(t, now),
		NeedsEscalation: NeedsEscalation(t, now),
		Remaining:       deadline.Sub(now),
	}
}
