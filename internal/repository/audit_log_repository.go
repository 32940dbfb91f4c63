package repository

import (
	"context"
	"fmt"
	"time"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type AuditLogRepository struct {
	db     DBTX
	logger logger.Logger
}

func NewAuditLogRepository(db DBTX, logger logger.Logger) domain.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	defer observe("create", "audit_log", time.Now())

	query := `
		INSERT INTO audit_logs (entity_type, entity_id, actor_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	log.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx,
		query,
		string(log.EntityType),
		log.EntityID,
		log.ActorID,
		string(log.Action),
		log.Details,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		r.logger.ErrorContext(ctx, "Audit log could not be created", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("audit log could not be created: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) FindByEntityID(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	defer observe("find_by_entity", "audit_log", time.Now())

	query := `
		SELECT id, entity_type, entity_id, actor_id, action, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Audit logs could not be loaded", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("audit logs could not be loaded: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var log domain.AuditLog
		var entityTypeStr, actionStr string

		if err := rows.Scan(
			&log.ID,
			&entityTypeStr,
			&log.EntityID,
			&log.ActorID,
			&actionStr,
			&log.Details,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit log row could not be read: %w", err)
		}

		log.EntityType = domain.EntityType(entityTypeStr)
		log.Action = domain.ActionType(actionStr)
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit log rows could not be read: %w", err)
	}

	return logs, nil
}
