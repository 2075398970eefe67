package service

import (
	"context"
	"sync"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

type recordingSink struct {
	mu   sync.Mutex
	keys []string
	kind []string
}

func (s *recordingSink) Send(_ context.Context, key, eventType string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.kind = append(s.kind, eventType)
	return nil
}

func TestNotificationsForwardEveryEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingSink{}
	NewNotificationService(dispatcher, sink, nil, config.NotificationConfig{}).RegisterHandlers()

	kinds := []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketEscalated,
		events.EventTicketDueSoon,
		events.EventTicketOverdue,
	}
	for _, kind := range kinds {
		err := dispatcher.Publish(context.Background(), events.Event{Type: kind, TicketID: "t-9", Actor: domain.SystemActor()})
		if err != nil {
			t.Fatalf("publish %s: %v", kind, err)
		}
	}
	if len(sink.kind) != len(kinds) {
		t.Fatalf("forwarded %d events, want %d", len(sink.kind), len(kinds))
	}
	for i, kind := range kinds {
		if sink.kind[i] != string(kind) || sink.keys[i] != "t-9" {
			t.Fatalf("event %d forwarded as %s/%s", i, sink.keys[i], sink.kind[i])
		}
	}
}

func TestNotificationsWithoutSink(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, nil, config.NotificationConfig{}).RegisterHandlers()
	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-1"}); err != nil {
		t.Fatalf("publish without sink: %v", err)
	}
}
