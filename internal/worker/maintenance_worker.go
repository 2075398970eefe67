package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Rebalancer is the assignment side of a maintenance pass.
type Rebalancer interface {
	Rebalance(ctx context.Context, rc domain.RequestContext) (service.RebalanceResult, error)
}

// DeadlineSweeper is the SLA side of a maintenance pass.
type DeadlineSweeper interface {
	SweepDeadlines(ctx context.Context) (service.SweepResult, error)
}

// MaintenanceWorker periodically rebalances workload and sweeps SLA
// deadlines as the system actor.
type MaintenanceWorker struct {
	rebalancer Rebalancer
	sweeper    DeadlineSweeper
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
}

// NewMaintenanceWorker builds the worker.
func NewMaintenanceWorker(rebalancer Rebalancer, sweeper DeadlineSweeper, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *MaintenanceWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceWorker{
		rebalancer: rebalancer,
		sweeper:    sweeper,
		metrics:    metrics,
		logger:     logger,
		interval:   interval,
	}
}

// Run executes a pass immediately and then on every tick until ctx is done.
func (w *MaintenanceWorker) Run(ctx context.Context) {
	w.logger.Info("maintenance worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("maintenance worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep and one rebalance. Errors are logged.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) {
	if w.sweeper != nil {
		res, err := w.sweeper.SweepDeadlines(ctx)
		if err != nil {
			w.logger.Error("deadline sweep failed", zap.Error(err))
		}
		w.metrics.AddEngine("sweep.escalated", res.Escalated)
		w.metrics.AddEngine("sweep.due_soon", res.DueSoon)
		w.metrics.AddEngine("sweep.overdue", res.Overdue)
		w.metrics.AddEngine("sweep.errors", res.Errors)
	}
	if w.rebalancer != nil {
		res, err := w.rebalancer.Rebalance(ctx, domain.SystemRequest())
		if err != nil {
			w.logger.Error("rebalance failed", zap.Error(err))
		}
		w.metrics.AddEngine("rebalance.reassigned", res.Reassigned)
		w.metrics.AddEngine("rebalance.errors", res.Errors)
	}
}
