package service

import (
	"context"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

// AuditLogService writes audit entries through whichever repository the
// caller hands it, so entries land in the caller's transaction.
type AuditLogService struct {
	logger logger.Logger
}

func NewAuditLogService(logger logger.Logger) *AuditLogService {
	return &AuditLogService{logger: logger}
}

// LogAction records an entry. Failures are logged and swallowed.
func (s *AuditLogService) LogAction(
	ctx context.Context,
	repo domain.AuditLogRepository,
	entityType domain.EntityType,
	entityID, actorID int64,
	action domain.ActionType,
	details string,
) {
	auditLog := &domain.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		Details:    details,
	}

	if err := repo.Create(ctx, auditLog); err != nil {
		s.logger.ErrorContext(ctx, "Audit log could not be written", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err.Error(),
		})
	}
}
