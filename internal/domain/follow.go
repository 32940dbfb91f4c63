package domain

import (
	"context"
	"time"
)

// Follow is a directed edge from FollowerID to FollowedID.
type Follow struct {
	ID         int64     `json:"id"`
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type FollowRepository interface {
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	// Create returns ErrDuplicate when the edge already exists.
	Create(ctx context.Context, follow *Follow) error
	// Delete reports whether an edge was removed.
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)
	CountByFollowedID(ctx context.Context, followedID int64) (int64, error)
	CountByFollowerID(ctx context.Context, followerID int64) (int64, error)
}

type FollowService interface {
	Follow(ctx context.Context, actorID, targetID int64) error
	Unfollow(ctx context.Context, actorID, targetID int64) error
	Counts(ctx context.Context, userID int64) (followers, following int64, err error)
}
