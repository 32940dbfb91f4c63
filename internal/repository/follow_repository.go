package repository

import (
	"context"
	"fmt"
	"time"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type FollowRepository struct {
	db     DBTX
	logger logger.Logger
}

func NewFollowRepository(db DBTX, logger logger.Logger) domain.FollowRepository {
	return &FollowRepository{
		db:     db,
		logger: logger,
	}
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	defer observe("exists", "follow", time.Now())

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Follow lookup failed", map[string]interface{}{
			"follower_id": followerID,
			"followed_id": followedID,
			"error":       err.Error(),
		})
		return false, fmt.Errorf("follow lookup failed: %w", err)
	}

	return count > 0, nil
}

// Create relies on UNIQUE(follower_id, followed_id); a second insert for the
// same pair surfaces as domain.ErrDuplicate.
func (r *FollowRepository) Create(ctx context.Context, follow *domain.Follow) error {
	defer observe("create", "follow", time.Now())

	query := `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	follow.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx, query, follow.FollowerID, follow.FollowedID, follow.CreatedAt).Scan(&follow.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("follow %d->%d: %w", follow.FollowerID, follow.FollowedID, domain.ErrDuplicate)
		}
		r.logger.ErrorContext(ctx, "Follow could not be created", map[string]interface{}{
			"follower_id": follow.FollowerID,
			"followed_id": follow.FollowedID,
			"error":       err.Error(),
		})
		return fmt.Errorf("follow could not be created: %w", err)
	}

	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	defer observe("delete", "follow", time.Now())

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Follow could not be deleted", map[string]interface{}{
			"follower_id": followerID,
			"followed_id": followedID,
			"error":       err.Error(),
		})
		return false, fmt.Errorf("follow could not be deleted: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("follow delete result unavailable: %w", err)
	}

	return affected > 0, nil
}

func (r *FollowRepository) CountByFollowedID(ctx context.Context, followedID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, followedID)
}

func (r *FollowRepository) CountByFollowerID(ctx context.Context, followerID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, followerID)
}

func (r *FollowRepository) count(ctx context.Context, query string, id int64) (int64, error) {
	defer observe("count", "follow", time.Now())

	var total int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Follows could not be counted", map[string]interface{}{"user_id": id, "error": err.Error()})
		return 0, fmt.Errorf("follows could not be counted: %w", err)
	}
	return total, nil
}
