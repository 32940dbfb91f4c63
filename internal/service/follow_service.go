package service

import (
	"context"
	"errors"
	"fmt"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
	"blogflow/pkg/metrics"
)

type FollowService struct {
	store  domain.Store
	audit  *AuditLogService
	logger logger.Logger
}

func NewFollowService(store domain.Store, audit *AuditLogService, logger logger.Logger) domain.FollowService {
	return &FollowService{
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

func (s *FollowService) Follow(ctx context.Context, actorID, targetID int64) error {
	err := s.follow(ctx, actorID, targetID)
	metrics.RecordFollowOperation("follow", outcome(err))
	return err
}

func (s *FollowService) follow(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.NewError(domain.KindCannotFollowSelf)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		for _, id := range []int64{actorID, targetID} {
			user, err := tx.Users().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if user == nil {
				return domain.NewError(domain.KindUserNotFound)
			}
		}

		exists, err := tx.Follows().Exists(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewError(domain.KindAlreadyFollowed)
		}

		follow := &domain.Follow{FollowerID: actorID, FollowedID: targetID}
		if err := tx.Follows().Create(ctx, follow); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.WrapError(domain.KindAlreadyFollowed, err)
			}
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeFollow, targetID, actorID, domain.ActionTypeCreate,
			fmt.Sprintf("user %d followed user %d", actorID, targetID))
		return nil
	})
}

func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID int64) error {
	err := s.unfollow(ctx, actorID, targetID)
	metrics.RecordFollowOperation("unfollow", outcome(err))
	return err
}

func (s *FollowService) unfollow(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.NewError(domain.KindCannotFollowSelf)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		removed, err := tx.Follows().Delete(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.NewError(domain.KindNotFollowed)
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeFollow, targetID, actorID, domain.ActionTypeDelete,
			fmt.Sprintf("user %d unfollowed user %d", actorID, targetID))
		return nil
	})
}

func (s *FollowService) Counts(ctx context.Context, userID int64) (int64, int64, error) {
	return countFollows(ctx, s.store.Follows(), userID)
}

func countFollows(ctx context.Context, follows domain.FollowRepository, userID int64) (followers, following int64, err error) {
	followers, err = follows.CountByFollowedID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err = follows.CountByFollowerID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// outcome labels a result for metrics: "ok" or the business kind.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.KindOf(err).String()
}
