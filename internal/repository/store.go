package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
	"blogflow/pkg/metrics"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic. Panics are rethrown.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SQLStore implements domain.Store on database/sql. The same queries run on
// SQLite and PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	q      DBTX
	logger logger.Logger
	inTx   bool
}

func NewSQLStore(db *sql.DB, logger logger.Logger) *SQLStore {
	return &SQLStore{db: db, q: db, logger: logger}
}

func (s *SQLStore) Users() domain.UserRepository {
	return NewUserRepository(s.q, s.logger)
}

func (s *SQLStore) Articles() domain.ArticleRepository {
	return NewArticleRepository(s.q, s.logger)
}

func (s *SQLStore) Follows() domain.FollowRepository {
	return NewFollowRepository(s.q, s.logger)
}

func (s *SQLStore) AuditLogs() domain.AuditLogRepository {
	return NewAuditLogRepository(s.q, s.logger)
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &SQLStore{db: s.db, q: tx, logger: s.logger, inTx: true})
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation recognizes unique/primary key violations from both drivers.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

func observe(operation, entity string, start time.Time) {
	metrics.RecordDatabaseOperation(operation, entity, time.Since(start))
}
