// Package scoring holds the pure workload and candidate scoring rules used by
// the assignment engine. Nothing here performs I/O.
package scoring

import (
	"math"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const (
	BasePointsPerTicket    = 10
	UrgentMultiplier       = 3
	HighMultiplier         = 2
	BasePriorityMultiplier = 1

	ratingAdjustmentPerPoint  = 0.1
	ratingNeutral             = 3.0
	experienceReductionPerYr  = 0.02
	experienceReductionCapYrs = 10
)

// WorkloadResult is the outcome of a workload computation.
type WorkloadResult struct {
	ActiveCount        int
	UrgentCount        int
	HighCount          int
	BaseScore          float64
	PriorityMultiplier int
	Score              float64
}

// Workload scores how loaded a technician is from a materialized snapshot of
// the technician's tickets. Completed tickets in the snapshot are ignored.
func Workload(tech *domain.Technician, tickets []domain.Ticket) WorkloadResult {
	var res WorkloadResult
	for i := range tickets {
		if !tickets[i].Status.CountsTowardWorkload() {
			continue
		}
		res.ActiveCount++
		switch tickets[i].Priority {
		case domain.TicketPriorityUrgent:
			res.UrgentCount++
		case domain.TicketPriorityHigh:
			res.HighCount++
		}
	}
	if res.ActiveCount < 0 {
		res.ActiveCount = 0
	}

	res.PriorityMultiplier = BasePriorityMultiplier
	if res.ActiveCount == 0 {
		res.Score = domain.MinWorkloadScore
		return res
	}

	res.BaseScore = float64(res.ActiveCount * BasePointsPerTicket)
	res.PriorityMultiplier = res.UrgentCount*UrgentMultiplier + res.HighCount*HighMultiplier + BasePriorityMultiplier
	if res.PriorityMultiplier < BasePriorityMultiplier {
		res.PriorityMultiplier = BasePriorityMultiplier
	}

	score := res.BaseScore * float64(res.PriorityMultiplier)
	if tech != nil {
		if tech.Rating != nil {
			score *= 1 + (clampRating(*tech.Rating)-ratingNeutral)*ratingAdjustmentPerPoint
		}
		if tech.ExperienceYears > 0 {
			years := tech.ExperienceYears
			if years > experienceReductionCapYrs {
				years = experienceReductionCapYrs
			}
			score *= 1 - float64(years)*experienceReductionPerYr
		}
	}
	res.Score = ClampWorkloadScore(score)
	return res
}

// ClampWorkloadScore bounds a score to [0,1000] and rounds to two decimals.
func ClampWorkloadScore(score float64) float64 {
	if math.IsNaN(score) || score < domain.MinWorkloadScore {
		score = domain.MinWorkloadScore
	}
	if score > domain.MaxWorkloadScore {
		score = domain.MaxWorkloadScore
	}
	return math.Round(score*100) / 100
}

func clampRating(r float64) float64 {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
