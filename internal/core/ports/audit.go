package ports

import (
	"context"

	"github.com/glacierai/auth-service/internal/core/domain"
)

// AuditPublisher accepts audit events without blocking the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService records a single audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}
