package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

type UserService struct {
	store   domain.Store
	hasher  domain.PasswordHasher
	access  domain.TokenProvider
	refresh domain.TokenProvider
	audit   *AuditLogService
	logger  logger.Logger
}

func NewUserService(
	store domain.Store,
	hasher domain.PasswordHasher,
	access domain.TokenProvider,
	refresh domain.TokenProvider,
	audit *AuditLogService,
	logger logger.Logger,
) domain.UserService {
	return &UserService{
		store:   store,
		hasher:  hasher,
		access:  access,
		refresh: refresh,
		audit:   audit,
		logger:  logger,
	}
}

func (s *UserService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, domain.NewError(domain.KindMissingRequiredFields)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("password could not be hashed: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		taken, err := tx.Users().ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewError(domain.KindUsernameAlreadyExists)
		}

		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.WrapError(domain.KindUsernameAlreadyExists, err)
			}
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeUser, user.ID, user.ID, domain.ActionTypeCreate,
			fmt.Sprintf("user registered: %s", user.Username))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return user, nil
}

// Login answers InvalidCredentials for both an unknown username and a wrong
// password so callers cannot probe which usernames exist.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, domain.NewError(domain.KindMissingRequiredFields)
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Matches(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "Login rejected", map[string]interface{}{"username": username})
		return nil, domain.NewError(domain.KindInvalidCredentials)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	s.logger.InfoContext(ctx, "User logged in", map[string]interface{}{"user_id": user.ID})
	return pair, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, domain.NewError(domain.KindMissingRequiredFields)
	}

	subject, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidToken, err)
	}

	user, err := s.store.Users().FindByUsername(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewError(domain.KindInvalidToken)
	}

	return s.issuePair(user)
}

func (s *UserService) issuePair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.access.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("access token could not be issued: %w", err)
	}

	refreshToken, err := s.refresh.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("refresh token could not be issued: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.access.TTL(),
		User:         user,
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	return loadProfile(ctx, s.store, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, targetID, callerID int64, patch domain.ProfilePatch) (*domain.Profile, error) {
	if targetID != callerID {
		return nil, domain.NewError(domain.KindForbidden)
	}

	var profile *domain.Profile
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		user, err := tx.Users().FindByID(ctx, targetID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.NewError(domain.KindUserNotFound)
		}

		changes := make([]string, 0, 3)

		if patch.Username != nil {
			username := strings.TrimSpace(*patch.Username)
			if username != "" && username != user.Username {
				taken, err := tx.Users().ExistsByUsername(ctx, username)
				if err != nil {
					return err
				}
				if taken {
					return domain.NewError(domain.KindUsernameAlreadyExists)
				}
				user.Username = username
				changes = append(changes, "username")
			}
		}
		if patch.Email != nil {
			user.Email = strings.TrimSpace(*patch.Email)
			changes = append(changes, "email")
		}
		if patch.Name != nil {
			user.Name = strings.TrimSpace(*patch.Name)
			changes = append(changes, "name")
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.WrapError(domain.KindUsernameAlreadyExists, err)
			}
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeUser, user.ID, callerID, domain.ActionTypeUpdate,
			"profile updated: "+strings.Join(changes, ","))

		profile, err = loadProfile(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func loadProfile(ctx context.Context, store domain.Store, userID int64) (*domain.Profile, error) {
	user, err := store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewError(domain.KindUserNotFound)
	}

	followers, following, err := countFollows(ctx, store.Follows(), userID)
	if err != nil {
		return nil, err
	}

	return &domain.Profile{User: user, Followers: followers, Following: following}, nil
}
