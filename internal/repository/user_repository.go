package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

const userColumns = `id, username, password_hash, name, email, created_at, updated_at, last_login_at`

type UserRepository struct {
	db     DBTX
	logger logger.Logger
}

func NewUserRepository(db DBTX, logger logger.Logger) domain.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}

	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	defer observe("find_by_id", "user", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "User lookup by id failed", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	defer observe("find_by_username", "user", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "User lookup by username failed", map[string]interface{}{"username": username, "error": err.Error()})
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	return user, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	defer observe("exists_by_username", "user", time.Now())

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Username check failed", map[string]interface{}{"username": username, "error": err.Error()})
		return false, fmt.Errorf("username check failed: %w", err)
	}

	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	defer observe("create", "user", time.Now())

	query := `
		INSERT INTO users (username, password_hash, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrDuplicate)
		}
		r.logger.ErrorContext(ctx, "User could not be created", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("user could not be created: %w", err)
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	defer observe("update", "user", time.Now())

	query := `
		UPDATE users
		SET username = $1, password_hash = $2, name = $3, email = $4, updated_at = $5, last_login_at = $6
		WHERE id = $7
	`

	user.UpdatedAt = time.Now().UTC()

	var lastLogin sql.NullTime
	if user.LastLoginAt != nil {
		lastLogin = sql.NullTime{Time: user.LastLoginAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.UpdatedAt,
		lastLogin,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrDuplicate)
		}
		r.logger.ErrorContext(ctx, "User could not be updated", map[string]interface{}{"id": user.ID, "error": err.Error()})
		return fmt.Errorf("user could not be updated: %w", err)
	}

	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	defer observe("update_last_login", "user", time.Now())

	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Last login could not be recorded", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("last login could not be recorded: %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	defer observe("delete", "user", time.Now())

	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "User could not be deleted", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("user could not be deleted: %w", err)
	}

	return nil
}
