package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"blogflow/internal/config"
	"blogflow/pkg/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const pingTimeout = 5 * time.Second

type ConnectionManager struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewConnectionManager(cfg config.DatabaseConfig, logger logger.Logger) (*ConnectionManager, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database could not be opened: %w", err)
	}

	configurePool(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", map[string]interface{}{
		"driver": cfg.Driver,
		"target": target(cfg),
	})

	return &ConnectionManager{db: db, driver: cfg.Driver, logger: logger}, nil
}

// DSN builds the driver-specific connection string.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		q := url.Values{}
		q.Set("_foreign_keys", "on")
		q.Set("_busy_timeout", "5000")
		if cfg.Path == ":memory:" {
			return "file::memory:?" + q.Encode(), nil
		}
		return "file:" + cfg.Path + "?" + q.Encode(), nil
	case config.DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLite allows a single writer, so it gets a single connection.
func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

func target(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Path
	}
	return cfg.Host + ":" + cfg.Port + "/" + cfg.Name
}

func (cm *ConnectionManager) DB() *sql.DB {
	return cm.db
}

func (cm *ConnectionManager) Driver() string {
	return cm.driver
}

func (cm *ConnectionManager) Ping(ctx context.Context) error {
	return cm.db.PingContext(ctx)
}

func (cm *ConnectionManager) Close() error {
	if err := cm.db.Close(); err != nil {
		cm.logger.Error("Database close failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (cm *ConnectionManager) GetStats() map[string]interface{} {
	dbStats := cm.db.Stats()
	return map[string]interface{}{
		"driver":           cm.driver,
		"open_connections": dbStats.OpenConnections,
		"in_use":           dbStats.InUse,
		"idle":             dbStats.Idle,
		"wait_count":       dbStats.WaitCount,
	}
}
