// Package memory provides map-backed repositories. They honour the same
// version and ordering contracts as the Postgres implementations and back
// tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds tickets, technicians and history behind one mutex.
type Store struct {
	mu          sync.RWMutex
	tickets     map[string]domain.Ticket
	technicians map[string]domain.Technician
	history     []domain.TicketHistory
	writes      int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tickets:     make(map[string]domain.Ticket),
		technicians: make(map[string]domain.Technician),
	}
}

// Tickets exposes the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Technicians exposes the technician repository view.
func (s *Store) Technicians() repository.TechnicianRepository { return technicianRepo{s} }

// History exposes the audit repository view.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

// PutTicket stores a ticket as-is, bypassing version checks. A zero version
// is stored as 1.
func (s *Store) PutTicket(t domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Version == 0 {
		t.Version = 1
	}
	s.tickets[t.ID] = t
}

// PutTechnician stores a technician as-is.
func (s *Store) PutTechnician(t domain.Technician) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.technicians[t.ID] = cloneTechnician(t)
}

// Writes counts successful mutations made through the repository views.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.Version = 1
	r.s.tickets[t.ID] = *t
	r.s.writes++
	return nil
}

func (r ticketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != t.Version {
		return repository.ErrVersionConflict
	}
	t.Version++
	r.s.tickets[t.ID] = *t
	r.s.writes++
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r ticketRepo) ListActiveByTechnician(_ context.Context, technicianID string) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Ticket
	for _, t := range r.s.tickets {
		if t.AssignedTo(technicianID) && t.Status.CountsTowardWorkload() {
			out = append(out, t)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r ticketRepo) ListUnresolved(_ context.Context, limit int) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Ticket
	for _, t := range r.s.tickets {
		if t.Status.IsCompleted() || t.Status == domain.TicketStatusCancelled {
			continue
		}
		out = append(out, t)
	}
	sortByCreated(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByCreated(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}

type technicianRepo struct{ s *Store }

func (r technicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.technicians[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = cloneTechnician(t)
	return &t, nil
}

func (r technicianRepo) ListCandidates(_ context.Context, applicationID, categoryID *string) ([]domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	probe := &domain.Ticket{ApplicationID: applicationID, CategoryID: categoryID}
	var out []domain.Technician
	for _, t := range r.s.technicians {
		if t.IsActive() && t.HasExpertiseFor(probe) {
			out = append(out, cloneTechnician(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r technicianRepo) ListOverloaded(_ context.Context, threshold float64) ([]domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Technician
	for _, t := range r.s.technicians {
		if t.WorkloadScore > threshold {
			out = append(out, cloneTechnician(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkloadScore == out[j].WorkloadScore {
			return out[i].ID < out[j].ID
		}
		return out[i].WorkloadScore > out[j].WorkloadScore
	})
	return out, nil
}

func (r technicianRepo) UpdateWorkload(_ context.Context, id string, score float64, activeCount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.technicians[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.WorkloadScore = score
	t.ActiveTicketCount = activeCount
	r.s.technicians[id] = t
	r.s.writes++
	return nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, h *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *h)
	r.s.writes++
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TicketHistory
	for _, h := range r.s.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func cloneTechnician(t domain.Technician) domain.Technician {
	t.ApplicationExpertise = cloneLevels(t.ApplicationExpertise)
	t.CategoryExpertise = cloneLevels(t.CategoryExpertise)
	return t
}

func cloneLevels(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
