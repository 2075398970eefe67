package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func orSystemClock(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// mapReadError converts repository lookups into DomainErrors.
func mapReadError(resource, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return apperrors.MapError(err)
}

// mapWriteError converts repository writes into DomainErrors.
func mapWriteError(resource, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConcurrentModification(resource, map[string]any{resource + "_id": id})
	default:
		return apperrors.NewPersistenceFailure(err)
	}
}

// auditTrail appends history entries after a committed ticket write. A failed
// append is logged; the ticket write stands.
type auditTrail struct {
	repo   repository.TicketHistoryRepository
	logger *zap.Logger
}

func (a auditTrail) record(ctx context.Context, rc domain.RequestContext, entry domain.TicketHistory) {
	if a.repo == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.ChangedBy = rc.Actor
	entry.IPAddress = rc.IPAddress
	entry.UserAgent = rc.UserAgent
	if err := a.repo.Create(ctx, &entry); err != nil {
		a.logger.Error("failed to append ticket history",
			zap.String("ticket_id", entry.TicketID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.String("request_id", rc.RequestID),
			zap.Error(err))
	}
}

// publisher is the fire-and-forget side of the event dispatcher.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = systemClock()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("notification dispatch failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func generateTicketNumber() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func technicianLockKey(id string) string {
	return "technician:" + id
}
