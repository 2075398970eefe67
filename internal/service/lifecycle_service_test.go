package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestOpenTicketDefaultsDueDateToSLA(t *testing.T) {
	f := newFixture(t)
	app := "billing"
	ticket, err := f.lifecycle.OpenTicket(context.Background(), userRequest(), OpenTicketInput{
		Title:         "  Printer on fire  ",
		Priority:      domain.TicketPriorityHigh,
		ApplicationID: &app,
	})
	if err != nil {
		t.Fatalf("open ticket: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen || ticket.Title != "Printer on fire" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "TCK-") || len(ticket.TicketNumber) != 12 {
		t.Fatalf("unexpected ticket number %q", ticket.TicketNumber)
	}
	if ticket.InitialPriority != domain.TicketPriorityHigh {
		t.Fatalf("initial priority not captured")
	}
	if ticket.DueDate == nil || !ticket.DueDate.Equal(baseTime.Add(24*time.Hour)) {
		t.Fatalf("due date = %v, want %v", ticket.DueDate, baseTime.Add(24*time.Hour))
	}
	if len(f.history(t, ticket.ID, domain.ChangeTypeCreated)) != 1 {
		t.Fatalf("expected creation audit entry")
	}
	if f.events.count(events.EventTicketCreated) != 1 {
		t.Fatalf("expected created event")
	}
}

func TestOpenTicketValidation(t *testing.T) {
	f := newFixture(t)
	app := "billing"
	cases := []struct {
		name  string
		input OpenTicketInput
	}{
		{"blank title", OpenTicketInput{Title: "  ", ApplicationID: &app}},
		{"bad priority", OpenTicketInput{Title: "x", Priority: "critical", ApplicationID: &app}},
		{"no classification", OpenTicketInput{Title: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.lifecycle.OpenTicket(context.Background(), userRequest(), tc.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
	if f.store.Writes() != 0 {
		t.Fatalf("invalid input must not write")
	}
}

func TestTransitionInvalidLeavesTicketUnchanged(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(openTicket("t-1", "billing", domain.TicketPriorityMedium, baseTime))
	before := f.store.Writes()

	_, err := f.lifecycle.TransitionStatus(context.Background(), userRequest(), "t-1", domain.TicketStatusResolved, "skip ahead")
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	ticket := f.ticket(t, "t-1")
	if ticket.Status != domain.TicketStatusOpen || ticket.ResolvedAt != nil || ticket.Version != 1 {
		t.Fatalf("ticket modified: %+v", ticket)
	}
	if f.store.Writes() != before {
		t.Fatalf("rejected transition must not write")
	}
}

func TestTransitionRecordsHistoryAndEvent(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(openTicket("t-1", "billing", domain.TicketPriorityMedium, baseTime))

	ticket, err := f.lifecycle.TransitionStatus(context.Background(), userRequest(), "t-1", domain.TicketStatusInProgress, "picked up")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if ticket.Status != domain.TicketStatusInProgress || ticket.Version != 2 {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	entries := f.history(t, "t-1", domain.ChangeTypeStatus)
	if len(entries) != 1 {
		t.Fatalf("expected one status record, got %d", len(entries))
	}
	if entries[0].OldValue["status"] != domain.TicketStatusOpen || entries[0].NewValue["status"] != domain.TicketStatusInProgress {
		t.Fatalf("unexpected record %+v", entries[0])
	}
	if entries[0].Notes != "picked up" || entries[0].ChangedBy.ID != "admin-1" {
		t.Fatalf("notes or actor missing: %+v", entries[0])
	}
	if f.events.count(events.EventTicketStatusChanged) != 1 {
		t.Fatalf("expected status event")
	}
}

type staleTicketRepo struct {
	repository.TicketRepository
	snapshot domain.Ticket
}

func (r staleTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	t := r.snapshot
	return &t, nil
}

func TestTransitionConcurrentModification(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(openTicket("t-1", "billing", domain.TicketPriorityMedium, baseTime))
	stale := *f.ticket(t, "t-1")

	if _, err := f.lifecycle.TransitionStatus(context.Background(), userRequest(), "t-1", domain.TicketStatusInProgress, ""); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	loser := NewLifecycleService(LifecycleDependencies{
		TicketRepo:  staleTicketRepo{TicketRepository: f.store.Tickets(), snapshot: stale},
		HistoryRepo: f.store.History(),
		Clock:       func() time.Time { return baseTime },
	})
	_, err := loser.TransitionStatus(context.Background(), userRequest(), "t-1", domain.TicketStatusCancelled, "")
	if !apperrors.HasCode(err, apperrors.CodeConcurrentModification) {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", err)
	}
	if !apperrors.ToDomainError(err).Retryable() {
		t.Fatalf("concurrent modification should be retryable")
	}
	if got := f.ticket(t, "t-1").Status; got != domain.TicketStatusInProgress {
		t.Fatalf("losing writer clobbered status: %s", got)
	}
}

func TestResolveRecomputesWorkloadAndStampsOnce(t *testing.T) {
	f := newFixture(t)
	tech := technicianWithApp("tech-a", "billing", 3)
	tech.ActiveTicketCount = 1
	tech.WorkloadScore = 10
	f.store.PutTechnician(tech)
	f.store.PutTicket(assigned(openTicket("t-1", "billing", domain.TicketPriorityMedium, baseTime), "tech-a", domain.TicketStatusInProgress))
	ctx := context.Background()

	f.now = baseTime.Add(90*time.Minute + 30*time.Second)
	ticket, err := f.lifecycle.TransitionStatus(ctx, userRequest(), "t-1", domain.TicketStatusResolved, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ticket.ResolutionTimeMinutes == nil || *ticket.ResolutionTimeMinutes != 90 {
		t.Fatalf("resolution minutes = %v, want 90", ticket.ResolutionTimeMinutes)
	}
	got := f.technician(t, "tech-a")
	if got.ActiveTicketCount != 0 || got.WorkloadScore != 0 {
		t.Fatalf("workload not recomputed after resolve: %+v", got)
	}

	resolvedAt := *ticket.ResolvedAt
	f.now = baseTime.Add(5 * time.Hour)
	closed, err := f.lifecycle.TransitionStatus(ctx, userRequest(), "t-1", domain.TicketStatusClosed, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.ResolvedAt.Equal(resolvedAt) || closed.ClosedAt == nil {
		t.Fatalf("resolved_at moved or closed_at missing: %+v", closed)
	}

	f.now = baseTime.Add(6 * time.Hour)
	reopened, err := f.lifecycle.TransitionStatus(ctx, userRequest(), "t-1", domain.TicketStatusOpen, "customer replied")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.ResolvedAt.Equal(resolvedAt) {
		t.Fatalf("resolved_at changed on reopen")
	}
	if got := f.technician(t, "tech-a").ActiveTicketCount; got != 1 {
		t.Fatalf("reopen should count toward workload again, got %d", got)
	}
}

func TestMarkFirstResponseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(openTicket("t-1", "billing", domain.TicketPriorityLow, baseTime))
	ctx := context.Background()

	f.now = baseTime.Add(10 * time.Minute)
	first, err := f.lifecycle.MarkFirstResponse(ctx, userRequest(), "t-1")
	if err != nil {
		t.Fatalf("first response: %v", err)
	}
	writes := f.store.Writes()

	f.now = baseTime.Add(time.Hour)
	second, err := f.lifecycle.MarkFirstResponse(ctx, userRequest(), "t-1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.FirstResponseAt.Equal(*first.FirstResponseAt) {
		t.Fatalf("first_response_at changed: %v -> %v", first.FirstResponseAt, second.FirstResponseAt)
	}
	if f.store.Writes() != writes {
		t.Fatalf("second call must not write")
	}
}

func TestEscalateKeepsStatus(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(assigned(openTicket("t-1", "billing", domain.TicketPriorityHigh, baseTime), "tech-a", domain.TicketStatusWaitingUser))
	ctx := context.Background()

	ticket, err := f.lifecycle.Escalate(ctx, userRequest(), "t-1", "VIP customer")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if !ticket.IsEscalated || ticket.EscalationReason == nil || *ticket.EscalationReason != "VIP customer" {
		t.Fatalf("escalation not recorded: %+v", ticket)
	}
	if ticket.Status != domain.TicketStatusWaitingUser {
		t.Fatalf("escalation changed status to %s", ticket.Status)
	}
	if _, err := f.lifecycle.Escalate(ctx, userRequest(), "t-1", "again"); err != nil {
		t.Fatalf("repeat escalate: %v", err)
	}
	if n := len(f.history(t, "t-1", domain.ChangeTypeEscalation)); n != 1 {
		t.Fatalf("expected one escalation record, got %d", n)
	}
	if f.events.count(events.EventTicketEscalated) != 1 {
		t.Fatalf("expected one escalation event")
	}
	if _, err := f.lifecycle.Escalate(ctx, userRequest(), "t-1", " "); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("blank reason should fail validation, got %v", err)
	}
}

func TestSLAStatusUrgent(t *testing.T) {
	f := newFixture(t)
	f.store.PutTicket(openTicket("t-1", "billing", domain.TicketPriorityUrgent, baseTime))
	ctx := context.Background()

	f.now = baseTime.Add(6*time.Hour - time.Second)
	status, err := f.lifecycle.SLAStatus(ctx, "t-1")
	if err != nil {
		t.Fatalf("sla status: %v", err)
	}
	if !status.Deadline.Equal(baseTime.Add(8*time.Hour)) || status.NeedsEscalation || !status.WithinSLA {
		t.Fatalf("unexpected status before threshold: %+v", status)
	}

	f.now = baseTime.Add(6 * time.Hour)
	status, _ = f.lifecycle.SLAStatus(ctx, "t-1")
	if !status.NeedsEscalation {
		t.Fatalf("expected escalation at 6h")
	}

	if _, err := f.lifecycle.SLAStatus(ctx, "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSweepDeadlinesEscalatesAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	urgent := openTicket("t-urgent", "billing", domain.TicketPriorityUrgent, baseTime)
	due := baseTime.Add(8 * time.Hour)
	urgent.DueDate = &due
	f.store.PutTicket(urgent)
	f.store.PutTicket(openTicket("t-low", "billing", domain.TicketPriorityLow, baseTime))
	ctx := context.Background()

	f.now = baseTime.Add(6 * time.Hour)
	res, err := f.lifecycle.SweepDeadlines(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Scanned != 2 || res.Escalated != 1 || res.DueSoon != 1 || res.Overdue != 0 {
		t.Fatalf("unexpected first sweep %+v", res)
	}
	ticket := f.ticket(t, "t-urgent")
	if !ticket.IsEscalated || ticket.EscalationReason == nil || *ticket.EscalationReason != EscalationReasonSLA {
		t.Fatalf("ticket not escalated by sweep: %+v", ticket)
	}
	entries := f.history(t, "t-urgent", domain.ChangeTypeEscalation)
	if len(entries) != 1 || entries[0].ChangedBy.Kind != domain.ActorKindSystem {
		t.Fatalf("expected system escalation record, got %+v", entries)
	}

	res, _ = f.lifecycle.SweepDeadlines(ctx)
	if res.Escalated != 0 || res.DueSoon != 0 {
		t.Fatalf("second sweep repeated work: %+v", res)
	}

	f.now = baseTime.Add(9 * time.Hour)
	res, _ = f.lifecycle.SweepDeadlines(ctx)
	if res.Overdue != 1 {
		t.Fatalf("expected overdue notification, got %+v", res)
	}
	res, _ = f.lifecycle.SweepDeadlines(ctx)
	if res.Overdue != 0 {
		t.Fatalf("overdue must be emitted once, got %+v", res)
	}
	if f.events.count(events.EventTicketDueSoon) != 1 || f.events.count(events.EventTicketOverdue) != 1 {
		t.Fatalf("unexpected deadline events")
	}
}

func TestSweepDeadlinesForgetsResolvedTickets(t *testing.T) {
	f := newFixture(t)
	ticket := openTicket("t-1", "billing", domain.TicketPriorityLow, baseTime)
	f.store.PutTicket(ticket)
	ctx := context.Background()

	f.now = baseTime.Add(30 * 24 * time.Hour)
	if res, _ := f.lifecycle.SweepDeadlines(ctx); res.Overdue != 1 {
		t.Fatalf("expected overdue notification, got %+v", res)
	}
	if n := f.notifiedCount(events.EventTicketOverdue); n != 1 {
		t.Fatalf("expected one remembered ticket, got %d", n)
	}

	resolved := f.ticket(t, "t-1")
	resolved.Status = domain.TicketStatusResolved
	f.store.PutTicket(*resolved)
	if res, _ := f.lifecycle.SweepDeadlines(ctx); res.Scanned != 0 {
		t.Fatalf("resolved ticket should not be scanned, got %+v", res)
	}
	if n := f.notifiedCount(events.EventTicketOverdue); n != 0 {
		t.Fatalf("resolved ticket still remembered (%d entries)", n)
	}

	reopened := f.ticket(t, "t-1")
	reopened.Status = domain.TicketStatusOpen
	f.store.PutTicket(*reopened)
	if res, _ := f.lifecycle.SweepDeadlines(ctx); res.Overdue != 1 {
		t.Fatalf("reopened overdue ticket should be notified again, got %+v", res)
	}
}

func TestListHistoryUnknownTicket(t *testing.T) {
	f := newFixture(t)
	if _, err := f.lifecycle.ListHistory(context.Background(), "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
