package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket only if the stored version still equals
	// ticket.Version, then increments it. A lost race yields ErrVersionConflict.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListActiveByTechnician(ctx context.Context, technicianID string) ([]domain.Ticket, error)
	ListUnresolved(ctx context.Context, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, title, priority, initial_priority, category_id, application_id,
               status, created_at, updated_at, first_response_at, resolved_at, closed_at, due_date,
               resolution_time_minutes, assigned_technician_id, assigned_by_kind, assigned_by_id, assigned_at,
               is_escalated, escalation_reason, escalated_at, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, ticket_number, title, priority, initial_priority, category_id, application_id,
            status, created_at, updated_at, due_date, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9,$10,1)
        RETURNING version`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Priority,
		ticket.InitialPriority,
		ticket.CategoryID,
		ticket.ApplicationID,
		ticket.Status,
		ticket.CreatedAt,
		ticket.DueDate,
	).Scan(&ticket.Version)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, category_id=$2, application_id=$3, status=$4, updated_at=$5,
            first_response_at=$6, resolved_at=$7, closed_at=$8, due_date=$9, resolution_time_minutes=$10,
            assigned_technician_id=$11, assigned_by_kind=$12, assigned_by_id=$13, assigned_at=$14,
            is_escalated=$15, escalation_reason=$16, escalated_at=$17, version=version+1
        WHERE id=$18 AND version=$19`
	var byKind, byID *string
	if ticket.AssignedBy != nil {
		kind := string(ticket.AssignedBy.Kind)
		id := ticket.AssignedBy.ID
		byKind, byID = &kind, &id
	}
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Priority,
		ticket.CategoryID,
		ticket.ApplicationID,
		ticket.Status,
		ticket.UpdatedAt,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.DueDate,
		ticket.ResolutionTimeMinutes,
		ticket.AssignedTechnicianID,
		byKind,
		byID,
		ticket.AssignedAt,
		ticket.IsEscalated,
		ticket.EscalationReason,
		ticket.EscalatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListActiveByTechnician(ctx context.Context, technicianID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE assigned_technician_id=$1 AND status NOT IN ($2,$3)
             ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, technicianID, domain.TicketStatusResolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListUnresolved(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s
             FROM tickets
             WHERE status NOT IN ($1,$2,$3)
             ORDER BY created_at ASC, id ASC LIMIT %d`, ticketColumns, limit)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		byKind, byID *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Priority,
		&ticket.InitialPriority,
		&ticket.CategoryID,
		&ticket.ApplicationID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.DueDate,
		&ticket.ResolutionTimeMinutes,
		&ticket.AssignedTechnicianID,
		&byKind,
		&byID,
		&ticket.AssignedAt,
		&ticket.IsEscalated,
		&ticket.EscalationReason,
		&ticket.EscalatedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	if byKind != nil {
		actor := domain.Actor{Kind: domain.ActorKind(*byKind)}
		if byID != nil {
			actor.ID = *byID
		}
		ticket.AssignedBy = &actor
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
