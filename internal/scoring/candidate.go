package scoring

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Factor weights. They are additive; the nominal maximum is 100.
const (
	WeightAvailability = 30.0
	WeightApplication  = 25.0
	WeightCategory     = 25.0
	WeightWorkload     = 10.0
	WeightRating       = 10.0
	WeightExperience   = 5.0
)

// Breakdown records each factor of a candidate score.
type Breakdown struct {
	Availability float64
	Application  float64
	Category     float64
	Workload     float64
	Rating       float64
	Experience   float64
	Total        float64
}

// AssignmentScore computes a technician's fitness for a ticket.
func AssignmentScore(policy domain.CapacityPolicy, tech *domain.Technician, ticket *domain.Ticket) Breakdown {
	var b Breakdown
	if policy.IsAvailable(tech) {
		b.Availability = WeightAvailability
	}
	if level, ok := tech.ApplicationLevel(ticket.ApplicationID); ok {
		b.Application = WeightApplication * float64(level) / domain.MaxExpertiseLevel
	}
	if level, ok := tech.CategoryLevel(ticket.CategoryID); ok {
		b.Category = WeightCategory * float64(level) / domain.MaxExpertiseLevel
	}
	b.Workload = WeightWorkload * (100 - policy.WorkloadPercentage(tech)) / 100
	if tech.Rating != nil {
		b.Rating = WeightRating * clampRating(*tech.Rating) / 5
	}
	if tech.ExperienceYears > 0 {
		b.Experience = float64(tech.ExperienceYears) / 2
		if b.Experience > WeightExperience {
			b.Experience = WeightExperience
		}
	}
	b.Total = b.Availability + b.Application + b.Category + b.Workload + b.Rating + b.Experience
	return b
}

// Candidate is a scored technician.
type Candidate struct {
	Technician *domain.Technician
	Score      Breakdown
}

// EligiblePool keeps technicians that have expertise for the ticket, can
// accept tickets, and are not excluded. Input order is preserved.
func EligiblePool(policy domain.CapacityPolicy, techs []domain.Technician, ticket *domain.Ticket, exclude ...string) []domain.Technician {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	pool := make([]domain.Technician, 0, len(techs))
	for i := range techs {
		tech := &techs[i]
		if _, excluded := skip[tech.ID]; excluded {
			continue
		}
		if !tech.HasExpertiseFor(ticket) || !policy.CanAcceptTickets(tech) {
			continue
		}
		pool = append(pool, *tech)
	}
	return pool
}

// SelectBest returns the highest scoring member of pool, or nil when pool is
// empty. Ties keep the member that appears first in pool; no other ordering
// is guaranteed.
func SelectBest(policy domain.CapacityPolicy, pool []domain.Technician, ticket *domain.Ticket) *Candidate {
	var best *Candidate
	for i := range pool {
		score := AssignmentScore(policy, &pool[i], ticket)
		if best == nil || score.Total > best.Score.Total {
			best = &Candidate{Technician: &pool[i], Score: score}
		}
	}
	return best
}
