package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// TechnicianResponse exposes capacity figures alongside identity.
type TechnicianResponse struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name"`
	Department           string                  `json:"department,omitempty"`
	Status               domain.TechnicianStatus `json:"status"`
	ActiveTicketCount    int                     `json:"active_ticket_count"`
	WorkloadScore        float64                 `json:"workload_score"`
	WorkloadPercentage   float64                 `json:"workload_percentage"`
	EffectiveMaxTickets  int                     `json:"effective_max_tickets"`
	IsAvailable          bool                    `json:"is_available"`
	CanAcceptTickets     bool                    `json:"can_accept_tickets"`
	IsBusy               bool                    `json:"is_busy"`
	Rating               *float64                `json:"rating,omitempty"`
	ExperienceYears      int                     `json:"experience_years"`
	ApplicationExpertise map[string]int          `json:"application_expertise,omitempty"`
	CategoryExpertise    map[string]int          `json:"category_expertise,omitempty"`
}
