package scoring

import (
	"math"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func ticketWith(priority domain.TicketPriority, status domain.TicketStatus) domain.Ticket {
	return domain.Ticket{Priority: priority, Status: status}
}

func TestWorkloadMixedPriorities(t *testing.T) {
	tickets := []domain.Ticket{
		ticketWith(domain.TicketPriorityUrgent, domain.TicketStatusInProgress),
		ticketWith(domain.TicketPriorityHigh, domain.TicketStatusAssigned),
		ticketWith(domain.TicketPriorityMedium, domain.TicketStatusWaitingUser),
		ticketWith(domain.TicketPriorityUrgent, domain.TicketStatusResolved),
	}
	res := Workload(&domain.Technician{}, tickets)
	if res.ActiveCount != 3 || res.BaseScore != 30 || res.PriorityMultiplier != 6 {
		t.Fatalf("unexpected breakdown %+v", res)
	}
	if res.Score != 180 {
		t.Fatalf("score = %v, want 180", res.Score)
	}
}

func TestWorkloadEmptyIsZero(t *testing.T) {
	res := Workload(&domain.Technician{}, nil)
	if res.Score != 0 || res.ActiveCount != 0 {
		t.Fatalf("expected zero workload, got %+v", res)
	}
}

func TestWorkloadRatingAndExperienceAdjust(t *testing.T) {
	rating := 5.0
	tech := &domain.Technician{Rating: &rating, ExperienceYears: 15}
	res := Workload(tech, []domain.Ticket{ticketWith(domain.TicketPriorityLow, domain.TicketStatusOpen)})
	// 10 * 1.2 * (1 - 10*0.02)
	if math.Abs(res.Score-9.6) > 1e-9 {
		t.Fatalf("score = %v, want 9.6", res.Score)
	}
}

func TestClampWorkloadScore(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{1500, 1000},
		{12.3456, 12.35},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := ClampWorkloadScore(tc.in); got != tc.want {
			t.Errorf("ClampWorkloadScore(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
