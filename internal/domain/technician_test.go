package domain

import "testing"

func intPtr(v int) *int { return &v }

func TestCapacityPolicyThresholds(t *testing.T) {
	policy := DefaultCapacityPolicy()
	cases := []struct {
		name                    string
		tech                    Technician
		pct                     float64
		available, accept, busy bool
	}{
		{"idle", Technician{Status: TechnicianStatusActive}, 0, true, true, false},
		{"at available mark", Technician{Status: TechnicianStatusActive, ActiveTicketCount: 8}, 80, false, true, false},
		{"busy", Technician{Status: TechnicianStatusActive, ActiveTicketCount: 9}, 90, false, true, true},
		{"full", Technician{Status: TechnicianStatusActive, ActiveTicketCount: 10}, 100, false, false, true},
		{"over capacity clamps", Technician{Status: TechnicianStatusActive, ActiveTicketCount: 3, MaxConcurrentTickets: intPtr(2)}, 100, false, false, true},
		{"inactive", Technician{Status: TechnicianStatusInactive}, 0, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.WorkloadPercentage(&tc.tech); got != tc.pct {
				t.Fatalf("pct = %v, want %v", got, tc.pct)
			}
			if got := policy.IsAvailable(&tc.tech); got != tc.available {
				t.Fatalf("available = %v, want %v", got, tc.available)
			}
			if got := policy.CanAcceptTickets(&tc.tech); got != tc.accept {
				t.Fatalf("accept = %v, want %v", got, tc.accept)
			}
			if got := policy.IsBusy(&tc.tech); got != tc.busy {
				t.Fatalf("busy = %v, want %v", got, tc.busy)
			}
		})
	}
}

func TestExpertiseLevelsAreClamped(t *testing.T) {
	app := "crm"
	tech := Technician{ApplicationExpertise: map[string]int{"crm": 9}}
	if level, ok := tech.ApplicationLevel(&app); !ok || level != MaxExpertiseLevel {
		t.Fatalf("level = %d ok=%v, want %d", level, ok, MaxExpertiseLevel)
	}
	if _, ok := tech.CategoryLevel(nil); ok {
		t.Fatalf("nil category never matches")
	}
	if !tech.HasExpertiseFor(&Ticket{ApplicationID: &app}) {
		t.Fatalf("expected expertise match")
	}
}
