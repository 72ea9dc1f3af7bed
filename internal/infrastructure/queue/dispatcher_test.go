package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/glacierai/auth-service/internal/core/domain"
	"github.com/glacierai/auth-service/internal/core/service"
	"github.com/glacierai/auth-service/internal/infrastructure/db/memory"
)

type recordingAuditService struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (s *recordingAuditService) Record(_ context.Context, e domain.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingAuditService) snapshot() []domain.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuthEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcher_DeliversAllAndPreservesPerUserOrder(t *testing.T) {
	svc := &recordingAuditService{}
	d := NewDispatcher(4, 64, svc, zerolog.Nop())
	d.Start(context.Background())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const users, perUser = 5, 10
	for i := 0; i < perUser; i++ {
		for u := 0; u < users; u++ {
			d.Publish(domain.AuthEvent{
				Type:       domain.EventLogin,
				Email:      fmt.Sprintf("user%d@x.com", u),
				Outcome:    domain.OutcomeSuccess,
				OccurredAt: base.Add(time.Duration(i) * time.Second),
			})
		}
	}
	d.Close()

	events := svc.snapshot()
	if len(events) != users*perUser {
		t.Fatalf("expected %d events, got %d (dropped %d)", users*perUser, len(events), d.Dropped())
	}

	last := make(map[string]time.Time)
	for _, e := range events {
		if prev, ok := last[e.Email]; ok && e.OccurredAt.Before(prev) {
			t.Fatalf("events for %s delivered out of order", e.Email)
		}
		last[e.Email] = e.OccurredAt
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	svc := &recordingAuditService{}
	d := NewDispatcher(1, 1, svc, zerolog.Nop())

	// Not started: the single slot fills and the rest are dropped.
	for i := 0; i < 3; i++ {
		d.Publish(domain.AuthEvent{Type: domain.EventLogin, Email: "a@x.com"})
	}
	if d.Dropped() != 2 {
		t.Fatalf("expected 2 dropped events, got %d", d.Dropped())
	}
}

func TestDispatcher_PublishAfterCloseIsDropped(t *testing.T) {
	svc := &recordingAuditService{}
	d := NewDispatcher(2, 8, svc, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	d.Publish(domain.AuthEvent{Type: domain.EventRegister, Email: "late@x.com"})
	if d.Dropped() != 1 {
		t.Fatalf("expected the late event to be dropped, got %d", d.Dropped())
	}
	if len(svc.snapshot()) != 0 {
		t.Fatalf("no events should be recorded")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, 1, &recordingAuditService{}, zerolog.Nop())

	first := d.shardIndex("a@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("a@x.com") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
	if idx := d.shardIndex(""); idx < 0 || idx >= 8 {
		t.Fatalf("shard index out of range: %d", idx)
	}
}

func TestNewDispatcher_Defaults(t *testing.T) {
	d := NewDispatcher(0, 0, &recordingAuditService{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers || cap(d.workers[0]) != defaultBuffer {
		t.Fatalf("unexpected defaults: workers=%d buffer=%d", len(d.workers), cap(d.workers[0]))
	}
}

func TestDispatcher_PersistsThroughAuditService(t *testing.T) {
	log := memory.NewAuditLog()
	d := NewDispatcher(2, 16, service.NewAuditService(log, zerolog.Nop()), zerolog.Nop())
	d.Start(context.Background())

	d.Publish(domain.AuthEvent{Type: domain.EventRegister, Email: "a@x.com", UserID: "u-1", Outcome: domain.OutcomeSuccess})
	d.Publish(domain.AuthEvent{Type: "", Email: "b@x.com"}) // rejected by the service, not persisted
	d.Close()

	events := log.Events()
	if len(events) != 1 || events[0].UserID != "u-1" {
		t.Fatalf("expected only the register event, got %+v", events)
	}
}
