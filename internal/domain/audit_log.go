package domain

import (
	"context"
	"time"
)

type EntityType string
type ActionType string

const (
	EntityTypeUser    EntityType = "user"
	EntityTypeArticle EntityType = "article"
	EntityTypeFollow  EntityType = "follow"

	ActionTypeCreate ActionType = "create"
	ActionTypeUpdate ActionType = "update"
	ActionTypeDelete ActionType = "delete"
)

type AuditLog struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	ActorID    int64      `json:"actor_id"`
	Action     ActionType `json:"action"`
	Details    string     `json:"details,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *AuditLog) error
	FindByEntityID(ctx context.Context, entityType EntityType, entityID int64) ([]*AuditLog, error)
}
