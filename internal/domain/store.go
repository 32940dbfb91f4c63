package domain

import "context"

// Store hands out repositories bound to one connection or transaction.
type Store interface {
	Users() UserRepository
	Articles() ArticleRepository
	Follows() FollowRepository
	AuditLogs() AuditLogRepository

	// WithinTx runs fn against a transactional Store. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
}
