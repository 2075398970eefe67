package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func TestTicketUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Tickets()

	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, _ := repo.GetByID(ctx, "t1")
	second, _ := repo.GetByID(ctx, "t1")

	first.Status = domain.TicketStatusInProgress
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("version = %d, want 2", first.Version)
	}
	second.Status = domain.TicketStatusCancelled
	if err := repo.Update(ctx, second); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if err := repo.Update(ctx, &domain.Ticket{ID: "ghost", Version: 1}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListActiveByTechnicianOrdersOldestFirst(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tech := "tech-1"
	put := func(id string, created time.Time, status domain.TicketStatus) {
		store.PutTicket(domain.Ticket{ID: id, CreatedAt: created, Status: status, AssignedTechnicianID: &tech})
	}
	put("b", base, domain.TicketStatusOpen)
	put("a", base, domain.TicketStatusCancelled)
	put("c", base.Add(-time.Hour), domain.TicketStatusInProgress)
	put("d", base.Add(-2*time.Hour), domain.TicketStatusClosed)

	got, err := store.Tickets().ListActiveByTechnician(context.Background(), tech)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, ticket := range got {
		ids = append(ids, ticket.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestTechnicianReadsAreIsolated(t *testing.T) {
	store := NewStore()
	store.PutTechnician(domain.Technician{ID: "x", Status: domain.TechnicianStatusActive, ApplicationExpertise: map[string]int{"crm": 3}})

	got, _ := store.Technicians().GetByID(context.Background(), "x")
	got.ApplicationExpertise["crm"] = 1

	again, _ := store.Technicians().GetByID(context.Background(), "x")
	if again.ApplicationExpertise["crm"] != 3 {
		t.Fatalf("stored expertise mutated through a read copy")
	}
}

func TestListOverloadedStrictThreshold(t *testing.T) {
	store := NewStore()
	store.PutTechnician(domain.Technician{ID: "at", WorkloadScore: 100})
	store.PutTechnician(domain.Technician{ID: "over", WorkloadScore: 140})
	store.PutTechnician(domain.Technician{ID: "most", WorkloadScore: 300})

	got, err := store.Technicians().ListOverloaded(context.Background(), 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "most" || got[1].ID != "over" {
		t.Fatalf("unexpected overloaded set %+v", got)
	}
}
