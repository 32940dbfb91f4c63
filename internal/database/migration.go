package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogflow/pkg/logger"
)

// Dialect holds the DDL fragments that differ between SQLite and PostgreSQL.
type Dialect struct {
	Name      string
	IDColumn  string
	Timestamp string
}

var (
	SQLite = Dialect{
		Name:      "sqlite3",
		IDColumn:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		Timestamp: "TIMESTAMP",
	}
	Postgres = Dialect{
		Name:      "postgres",
		IDColumn:  "BIGSERIAL PRIMARY KEY",
		Timestamp: "TIMESTAMPTZ",
	}
)

// DialectFor resolves a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case SQLite.Name:
		return SQLite, nil
	case Postgres.Name:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("no dialect for driver %q", driver)
	}
}

type Migration struct {
	Name string
	Up   func(ctx context.Context, tx *sql.Tx, d Dialect) error
}

type MigrationService struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrationService(db *sql.DB, dialect Dialect, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

// Migrations is the ordered schema history. Entries are never reordered.
func Migrations() []Migration {
	return []Migration{
		{"create_users_table", CreateUsersTable},
		{"create_articles_table", CreateArticlesTable},
		{"create_follows_table", CreateFollowsTable},
		{"create_audit_logs_table", CreateAuditLogsTable},
	}
}

func (m *MigrationService) InitMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS migrations (
        id %s,
        name TEXT NOT NULL UNIQUE,
        applied_at %s NOT NULL
    )
    `, m.dialect.IDColumn, m.dialect.Timestamp)

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error("Migration table could not be created", map[string]interface{}{"error": err.Error()})
		return err
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE name = $1", name).Scan(&count)
	if err != nil {
		m.logger.Error("Migration state could not be checked", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

// Applied lists the recorded migration names in application order.
func (m *MigrationService) Applied(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM migrations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ApplyMigration runs the migration and records it in one transaction.
func (m *MigrationService) ApplyMigration(ctx context.Context, migration Migration) (err error) {
	applied, err := m.IsMigrationApplied(ctx, migration.Name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Debug("Migration already applied", map[string]interface{}{"name": migration.Name})
		return nil
	}

	m.logger.Info("Applying migration", map[string]interface{}{"name": migration.Name})

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		m.logger.Error("Transaction could not be started", map[string]interface{}{"error": err.Error()})
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
			m.logger.Error("Migration rolled back", map[string]interface{}{"name": migration.Name, "error": err.Error()})
		}
	}()

	if err = migration.Up(ctx, tx, m.dialect); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "INSERT INTO migrations (name, applied_at) VALUES ($1, $2)", migration.Name, time.Now().UTC()); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("Migration applied", map[string]interface{}{"name": migration.Name})
	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	m.logger.Info("Running migrations", map[string]interface{}{"dialect": m.dialect.Name})

	if err := m.InitMigrationTable(ctx); err != nil {
		return fmt.Errorf("migration table could not be created: %w", err)
	}

	for _, migration := range Migrations() {
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return fmt.Errorf("applied migrations could not be listed: %w", err)
	}

	m.logger.Info("Schema is up to date", map[string]interface{}{
		"applied": len(applied),
		"latest":  applied[len(applied)-1],
	})
	return nil
}

func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func CreateUsersTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx, fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS users (
        id %s,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        email TEXT NOT NULL DEFAULT '',
        created_at %[2]s NOT NULL,
        updated_at %[2]s NOT NULL,
        last_login_at %[2]s
    )
    `, d.IDColumn, d.Timestamp))
}

func CreateArticlesTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS articles (
        id %s,
        author_id BIGINT NOT NULL,
        author_name TEXT NOT NULL DEFAULT '',
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        summary TEXT NOT NULL DEFAULT '',
        tags TEXT NOT NULL DEFAULT '',
        category TEXT NOT NULL DEFAULT '',
        view_count BIGINT NOT NULL DEFAULT 0,
        created_at %[2]s NOT NULL,
        updated_at %[2]s NOT NULL,
        FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
    )
    `, d.IDColumn, d.Timestamp),
		`CREATE INDEX IF NOT EXISTS articles_author_id_idx ON articles (author_id)`,
		`CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at)`,
	)
}

func CreateFollowsTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS follows (
        id %s,
        follower_id BIGINT NOT NULL,
        followed_id BIGINT NOT NULL,
        created_at %s NOT NULL,
        UNIQUE (follower_id, followed_id),
        CHECK (follower_id <> followed_id),
        FOREIGN KEY (follower_id) REFERENCES users (id) ON DELETE CASCADE,
        FOREIGN KEY (followed_id) REFERENCES users (id) ON DELETE CASCADE
    )
    `, d.IDColumn, d.Timestamp),
		`CREATE INDEX IF NOT EXISTS follows_followed_id_idx ON follows (followed_id)`,
	)
}

func CreateAuditLogsTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS audit_logs (
        id %s,
        entity_type TEXT NOT NULL,
        entity_id BIGINT NOT NULL,
        actor_id BIGINT NOT NULL,
        action TEXT NOT NULL,
        details TEXT NOT NULL DEFAULT '',
        created_at %s NOT NULL
    )
    `, d.IDColumn, d.Timestamp),
		`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id)`,
	)
}
