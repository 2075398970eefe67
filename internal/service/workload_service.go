package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/scoring"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// WorkloadService keeps technician workload scores in step with their
// active ticket sets.
type WorkloadService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	locker      locking.Locker
	policy      domain.CapacityPolicy
	logger      *zap.Logger
}

// WorkloadDependencies bundles collaborators.
type WorkloadDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	Locker         locking.Locker
	Policy         domain.CapacityPolicy
	Logger         *zap.Logger
}

// NewWorkloadService creates the service.
func NewWorkloadService(deps WorkloadDependencies) *WorkloadService {
	locker := deps.Locker
	if locker == nil {
		locker = locking.NewLocalLocker()
	}
	policy := deps.Policy
	if policy.DefaultMaxTickets <= 0 {
		policy = domain.DefaultCapacityPolicy()
	}
	return &WorkloadService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		locker:      locker,
		policy:      policy,
		logger:      orNop(deps.Logger),
	}
}

// Policy returns the capacity thresholds in use.
func (s *WorkloadService) Policy() domain.CapacityPolicy {
	return s.policy
}

// Recompute reloads the technician's active tickets and persists a fresh
// workload score and active count. The read-compute-write sequence runs under
// the technician's lock. A lock held elsewhere yields CONCURRENT_MODIFICATION;
// a lock backend failure is a PERSISTENCE_FAILURE. When the snapshot cannot be read or the write is
// rejected, the returned technician carries a score of 0 alongside a
// PERSISTENCE_FAILURE error.
func (s *WorkloadService) Recompute(ctx context.Context, technicianID string) (*domain.Technician, error) {
	unlock, err := s.locker.Lock(ctx, technicianLockKey(technicianID))
	if err != nil {
		if errors.Is(err, locking.ErrNotAcquired) {
			return nil, apperrors.NewConcurrentModification("technician", map[string]any{"technician_id": technicianID})
		}
		s.logger.Error("failed to acquire technician lock", zap.String("technician_id", technicianID), zap.Error(err))
		return nil, apperrors.NewPersistenceFailure(err)
	}
	defer unlock()

	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		return nil, mapReadError("technician", technicianID, err)
	}

	active, err := s.tickets.ListActiveByTechnician(ctx, technicianID)
	if err != nil {
		tech.WorkloadScore = domain.MinWorkloadScore
		s.logger.Error("failed to load active tickets", zap.String("technician_id", technicianID), zap.Error(err))
		return tech, apperrors.NewPersistenceFailure(err)
	}

	result := scoring.Workload(tech, active)
	tech.WorkloadScore = result.Score
	tech.ActiveTicketCount = result.ActiveCount

	if err := s.technicians.UpdateWorkload(ctx, tech.ID, result.Score, result.ActiveCount); err != nil {
		tech.WorkloadScore = domain.MinWorkloadScore
		s.logger.Error("failed to persist workload score",
			zap.String("technician_id", technicianID),
			zap.Float64("score", result.Score),
			zap.Error(err))
		return tech, apperrors.NewPersistenceFailure(err)
	}

	s.logger.Debug("workload recomputed",
		zap.String("technician_id", technicianID),
		zap.Int("active", result.ActiveCount),
		zap.Int("urgent", result.UrgentCount),
		zap.Int("high", result.HighCount),
		zap.Float64("score", result.Score))
	return tech, nil
}

// GetTechnician loads a technician.
func (s *WorkloadService) GetTechnician(ctx context.Context, technicianID string) (*domain.Technician, error) {
	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		return nil, mapReadError("technician", technicianID, err)
	}
	return tech, nil
}

// recomputeQuietly is used after a committed ticket write, where a failed
// recompute must not undo the write.
func (s *WorkloadService) recomputeQuietly(ctx context.Context, technicianID string) {
	if technicianID == "" {
		return
	}
	if _, err := s.Recompute(ctx, technicianID); err != nil {
		s.logger.Warn("workload recompute failed", zap.String("technician_id", technicianID), zap.Error(err))
	}
}
