package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type eventRecorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

func (r *eventRecorder) count(kind events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.got {
		if e.Type == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	store      *memory.Store
	now        time.Time
	events     *eventRecorder
	workload   *WorkloadService
	lifecycle  *LifecycleService
	assignment *AssignmentService
}

type fixtureOption func(*fixtureDeps)

type fixtureDeps struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
}

func withTickets(wrap func(repository.TicketRepository) repository.TicketRepository) fixtureOption {
	return func(d *fixtureDeps) { d.tickets = wrap(d.tickets) }
}

func withTechnicians(wrap func(repository.TechnicianRepository) repository.TechnicianRepository) fixtureOption {
	return func(d *fixtureDeps) { d.technicians = wrap(d.technicians) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewStore(),
		now:    baseTime,
		events: &eventRecorder{},
	}
	deps := fixtureDeps{tickets: f.store.Tickets(), technicians: f.store.Technicians()}
	for _, opt := range opts {
		opt(&deps)
	}

	dispatcher := events.NewInMemoryDispatcher()
	for _, kind := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketEscalated,
		events.EventTicketDueSoon,
		events.EventTicketOverdue,
	} {
		dispatcher.Subscribe(kind, f.events.handle)
	}
	clock := func() time.Time { return f.now }

	f.workload = NewWorkloadService(WorkloadDependencies{
		TicketRepo:     deps.tickets,
		TechnicianRepo: deps.technicians,
		Locker:         locking.NewLocalLocker(),
		Policy:         domain.DefaultCapacityPolicy(),
	})
	f.lifecycle = NewLifecycleService(LifecycleDependencies{
		TicketRepo:    deps.tickets,
		HistoryRepo:   f.store.History(),
		Workload:      f.workload,
		Dispatcher:    dispatcher,
		Clock:         clock,
		DueSoonWindow: 2 * time.Hour,
	})
	f.assignment = NewAssignmentService(AssignmentDependencies{
		TicketRepo:        deps.tickets,
		TechnicianRepo:    deps.technicians,
		HistoryRepo:       f.store.History(),
		Workload:          f.workload,
		Dispatcher:        dispatcher,
		Clock:             clock,
		OverloadThreshold: 100,
		RebalanceBatch:    2,
	})
	return f
}

func (f *fixture) ticket(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load ticket %s: %v", id, err)
	}
	return ticket
}

func (f *fixture) technician(t *testing.T, id string) *domain.Technician {
	t.Helper()
	tech, err := f.store.Technicians().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load technician %s: %v", id, err)
	}
	return tech
}

func (f *fixture) history(t *testing.T, ticketID string, kind domain.TicketChangeType) []domain.TicketHistory {
	t.Helper()
	all, err := f.store.History().ListByTicket(context.Background(), ticketID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	var out []domain.TicketHistory
	for _, h := range all {
		if h.ChangeType == kind {
			out = append(out, h)
		}
	}
	return out
}

func technicianWithApp(id, app string, level int) domain.Technician {
	return domain.Technician{
		ID:                   id,
		Name:                 id,
		Status:               domain.TechnicianStatusActive,
		ApplicationExpertise: map[string]int{app: level},
	}
}

func openTicket(id, app string, priority domain.TicketPriority, created time.Time) domain.Ticket {
	appID := app
	return domain.Ticket{
		ID:              id,
		TicketNumber:    "TCK-" + id,
		Title:           id,
		Priority:        priority,
		InitialPriority: priority,
		ApplicationID:   &appID,
		Status:          domain.TicketStatusOpen,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func assigned(t domain.Ticket, technicianID string, status domain.TicketStatus) domain.Ticket {
	id := technicianID
	t.AssignedTechnicianID = &id
	t.Status = status
	return t
}

func userRequest() domain.RequestContext {
	return domain.RequestContext{
		Actor:     domain.Actor{Kind: domain.ActorKindAdminHelpdesk, ID: "admin-1"},
		IPAddress: "10.0.0.7",
		UserAgent: "test",
		RequestID: "req-1",
	}
}

func (f *fixture) notifiedCount(kind events.EventType) int {
	f.lifecycle.notifiedMu.Lock()
	defer f.lifecycle.notifiedMu.Unlock()
	return len(f.lifecycle.notified[kind])
}
