package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TechnicianRepository handles persistence for technicians and their expertise.
type TechnicianRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	// ListCandidates returns active technicians with recorded expertise in
	// the application or the category, ordered by id.
	ListCandidates(ctx context.Context, applicationID, categoryID *string) ([]domain.Technician, error)
	// ListOverloaded returns technicians whose stored workload score exceeds
	// threshold, highest first.
	ListOverloaded(ctx context.Context, threshold float64) ([]domain.Technician, error)
	UpdateWorkload(ctx context.Context, id string, score float64, activeCount int) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `t.id, t.name, t.department, t.status, t.max_concurrent_tickets, t.active_ticket_count,
               t.workload_score, t.rating, t.experience_years, t.created_at, t.updated_at`

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians t WHERE t.id=$1`
	tech, err := scanTechnician(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	techs := []domain.Technician{*tech}
	if err := r.loadExpertise(ctx, techs); err != nil {
		return nil, err
	}
	return &techs[0], nil
}

func (r *technicianRepository) ListCandidates(ctx context.Context, applicationID, categoryID *string) ([]domain.Technician, error) {
	if applicationID == nil && categoryID == nil {
		return nil, nil
	}
	query := `SELECT ` + technicianColumns + `
        FROM technicians t
        WHERE t.status=$1 AND (
            EXISTS (SELECT 1 FROM technician_application_expertise a WHERE a.technician_id=t.id AND a.application_id=$2)
            OR EXISTS (SELECT 1 FROM technician_category_expertise c WHERE c.technician_id=t.id AND c.category_id=$3))
        ORDER BY t.id ASC`
	rows, err := r.pool.Query(ctx, query, domain.TechnicianStatusActive, applicationID, categoryID)
	if err != nil {
		return nil, err
	}
	techs, err := scanTechnicians(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadExpertise(ctx, techs); err != nil {
		return nil, err
	}
	return techs, nil
}

func (r *technicianRepository) ListOverloaded(ctx context.Context, threshold float64) ([]domain.Technician, error) {
	query := `SELECT ` + technicianColumns + `
        FROM technicians t
        WHERE t.workload_score > $1
        ORDER BY t.workload_score DESC, t.id ASC`
	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	techs, err := scanTechnicians(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadExpertise(ctx, techs); err != nil {
		return nil, err
	}
	return techs, nil
}

func (r *technicianRepository) UpdateWorkload(ctx context.Context, id string, score float64, activeCount int) error {
	const query = `
        UPDATE technicians
        SET workload_score=$1, active_ticket_count=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, score, activeCount, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// loadExpertise fills both expertise maps with one query per table.
func (r *technicianRepository) loadExpertise(ctx context.Context, techs []domain.Technician) error {
	if len(techs) == 0 {
		return nil
	}
	ids := make([]string, len(techs))
	index := make(map[string]int, len(techs))
	for i := range techs {
		ids[i] = techs[i].ID
		index[techs[i].ID] = i
		techs[i].ApplicationExpertise = map[string]int{}
		techs[i].CategoryExpertise = map[string]int{}
	}

	load := func(query string, assign func(tech *domain.Technician, key string, level int)) error {
		rows, err := r.pool.Query(ctx, query, ids)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				techID, key string
				level       int
			)
			if err := rows.Scan(&techID, &key, &level); err != nil {
				return err
			}
			if i, ok := index[techID]; ok {
				assign(&techs[i], key, level)
			}
		}
		return rows.Err()
	}

	if err := load(`SELECT technician_id, application_id, level FROM technician_application_expertise WHERE technician_id = ANY($1)`,
		func(tech *domain.Technician, key string, level int) { tech.ApplicationExpertise[key] = level }); err != nil {
		return err
	}
	return load(`SELECT technician_id, category_id, level FROM technician_category_expertise WHERE technician_id = ANY($1)`,
		func(tech *domain.Technician, key string, level int) { tech.CategoryExpertise[key] = level })
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var tech domain.Technician
	if err := row.Scan(
		&tech.ID,
		&tech.Name,
		&tech.Department,
		&tech.Status,
		&tech.MaxConcurrentTickets,
		&tech.ActiveTicketCount,
		&tech.WorkloadScore,
		&tech.Rating,
		&tech.ExperienceYears,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}

func scanTechnicians(rows pgx.Rows) ([]domain.Technician, error) {
	defer rows.Close()
	var result []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tech)
	}
	return result, rows.Err()
}
