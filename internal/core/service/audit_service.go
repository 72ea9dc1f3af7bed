package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/glacierai/auth-service/internal/api/metrics"
	"github.com/glacierai/auth-service/internal/core/domain"
	"github.com/glacierai/auth-service/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists events to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single audit event and counts it.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		metrics.AuthEventsErrorsTotal.WithLabelValues("invalid_event").Inc()
		return fmt.Errorf("record audit event: %w", domain.ErrInvalidInput)
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuthEventsErrorsTotal.WithLabelValues("insert_failed").Inc()
		return fmt.Errorf("record audit event: %w", err)
	}

	metrics.AuthEventsRecordedTotal.WithLabelValues(string(event.Type), event.Outcome).Inc()

	if event.Outcome == domain.OutcomeFailure {
		s.log.Info().
			Str("type", string(event.Type)).
			Str("email", event.Email).
			Str("reason", event.Reason).
			Msg("auth attempt failed")
	} else {
		s.log.Debug().
			Str("type", string(event.Type)).
			Str("user_id", event.UserID).
			Msg("auth event recorded")
	}
	return nil
}
