package domain

import "time"

// TechnicianStatus is the availability flag of a technician.
type TechnicianStatus string

const (
	TechnicianStatusActive   TechnicianStatus = "active"
	TechnicianStatusInactive TechnicianStatus = "inactive"
)

const (
	MinExpertiseLevel = 1
	MaxExpertiseLevel = 5

	MinWorkloadScore = 0.0
	MaxWorkloadScore = 1000.0
)

// ClampExpertiseLevel forces a recorded level into [1,5].
func ClampExpertiseLevel(level int) int {
	if level < MinExpertiseLevel {
		return MinExpertiseLevel
	}
	if level > MaxExpertiseLevel {
		return MaxExpertiseLevel
	}
	return level
}

// Technician models a support agent that can receive tickets.
type Technician struct {
	ID                   string
	Name                 string
	Department           string
	Status               TechnicianStatus
	MaxConcurrentTickets *int
	ActiveTicketCount    int
	WorkloadScore        float64
	Rating               *float64
	ExperienceYears      int
	ApplicationExpertise map[string]int
	CategoryExpertise    map[string]int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports the availability flag.
func (t *Technician) IsActive() bool {
	return t.Status == TechnicianStatusActive
}

// ApplicationLevel returns the clamped expertise for an application, or 0 and
// false when none is recorded.
func (t *Technician) ApplicationLevel(applicationID *string) (int, bool) {
	return lookupLevel(t.ApplicationExpertise, applicationID)
}

// CategoryLevel returns the clamped expertise for a category, or 0 and false
// when none is recorded.
func (t *Technician) CategoryLevel(categoryID *string) (int, bool) {
	return lookupLevel(t.CategoryExpertise, categoryID)
}

// HasExpertiseFor reports whether the technician has recorded expertise in
// the ticket's application or category.
func (t *Technician) HasExpertiseFor(ticket *Ticket) bool {
	if _, ok := t.ApplicationLevel(ticket.ApplicationID); ok {
		return true
	}
	_, ok := t.CategoryLevel(ticket.CategoryID)
	return ok
}

func lookupLevel(levels map[string]int, key *string) (int, bool) {
	if key == nil || levels == nil {
		return 0, false
	}
	level, ok := levels[*key]
	if !ok {
		return 0, false
	}
	return ClampExpertiseLevel(level), true
}

// CapacityPolicy holds the thresholds behind the availability predicates.
type CapacityPolicy struct {
	DefaultMaxTickets int
	// AvailableBelowPercent: a technician is available while under this load.
	AvailableBelowPercent float64
	// AcceptBelowPercent: new tickets are accepted while under this load.
	AcceptBelowPercent float64
	// BusyAtPercent: at or above this load the technician is busy.
	BusyAtPercent float64
}

// DefaultCapacityPolicy returns the documented defaults.
func DefaultCapacityPolicy() CapacityPolicy {
	return CapacityPolicy{
		DefaultMaxTickets:     10,
		AvailableBelowPercent: 80,
		AcceptBelowPercent:    100,
		BusyAtPercent:         90,
	}
}

// EffectiveMaxTickets returns the configured capacity or the policy default.
func (p CapacityPolicy) EffectiveMaxTickets(t *Technician) int {
	if t.MaxConcurrentTickets != nil && *t.MaxConcurrentTickets > 0 {
		return *t.MaxConcurrentTickets
	}
	if p.DefaultMaxTickets > 0 {
		return p.DefaultMaxTickets
	}
	return DefaultCapacityPolicy().DefaultMaxTickets
}

// WorkloadPercentage is min(100, active/max*100).
func (p CapacityPolicy) WorkloadPercentage(t *Technician) float64 {
	active := t.ActiveTicketCount
	if active < 0 {
		active = 0
	}
	pct := float64(active*100) / float64(p.EffectiveMaxTickets(t))
	if pct > 100 {
		return 100
	}
	return pct
}

// IsAvailable reports whether the technician is active and lightly loaded.
func (p CapacityPolicy) IsAvailable(t *Technician) bool {
	return t.IsActive() && p.WorkloadPercentage(t) < p.AvailableBelowPercent
}

// CanAcceptTickets reports whether the technician may enter a candidate pool.
func (p CapacityPolicy) CanAcceptTickets(t *Technician) bool {
	return t.IsActive() && p.WorkloadPercentage(t) < p.AcceptBelowPercent
}

// IsBusy reports whether the technician's load is at or above the busy mark.
func (p CapacityPolicy) IsBusy(t *Technician) bool {
	return p.WorkloadPercentage(t) >= p.BusyAtPercent
}
