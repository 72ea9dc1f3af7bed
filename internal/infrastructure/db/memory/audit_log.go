package memory

import (
	"context"
	"sync"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// AuditLog is an in-memory ports.AuditRepository.
type AuditLog struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (l *AuditLog) Events() []domain.AuthEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.AuthEvent, len(l.events))
	copy(out, l.events)
	return out
}
