package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogflow/internal/database"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(db, database.SQLite, logger.Nop())
	require.NoError(t, migrations.RunMigrations(context.Background()))

	return NewSQLStore(db, logger.Nop())
}

func createUser(t *testing.T, s *SQLStore, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "hash", Name: username}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	alice := createUser(t, s, "alice")
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := s.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Nil(t, got.LastLoginAt)

	got, err = s.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	missing, err := s.Users().FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := s.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Users().ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepositoryDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "alice")

	err := s.Users().Create(context.Background(), &domain.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	bob := createUser(t, s, "bob")
	bob.Username = "alice"
	err = s.Users().Update(context.Background(), bob)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUserRepositoryUpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")

	alice.Email = "alice@example.com"
	require.NoError(t, s.Users().Update(ctx, alice))

	login := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Users().UpdateLastLogin(ctx, alice.ID, login))

	got, err := s.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, login.Equal(*got.LastLoginAt))
	assert.Equal(t, "alice@example.com", got.Email, "other columns are untouched")
	assert.Equal(t, "alice", got.Username)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")

	login := time.Now().UTC().Truncate(time.Second)
	alice.Email = "alice@example.com"
	alice.LastLoginAt = &login
	require.NoError(t, s.Users().Update(ctx, alice))

	got, err := s.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, login.Equal(*got.LastLoginAt))
}

func TestArticleRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")

	first := &domain.Article{AuthorID: alice.ID, AuthorName: "alice", Title: "one", Content: "c1", Summary: "c1", Tags: "go,sql"}
	require.NoError(t, s.Articles().Create(ctx, first))
	second := &domain.Article{AuthorID: alice.ID, AuthorName: "alice", Title: "two", Content: "c2", Summary: "c2"}
	require.NoError(t, s.Articles().Create(ctx, second))

	got, err := s.Articles().FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "one", got.Title)
	assert.Equal(t, "go,sql", got.Tags)
	assert.Zero(t, got.ViewCount)

	total, err := s.Articles().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, err := s.Articles().List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	page2, err := s.Articles().List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, first.ID, page2[0].ID)

	all, err := s.Articles().List(ctx, 0, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, all, 2, "an unbounded limit returns every row")

	require.NoError(t, s.Articles().IncrementViewCount(ctx, first.ID))
	require.NoError(t, s.Articles().IncrementViewCount(ctx, first.ID))

	got.Title = "one edited"
	got.AuthorID = 12345
	got.UpdatedAt = time.Now()
	require.NoError(t, s.Articles().Update(ctx, got))

	got, err = s.Articles().FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "one edited", got.Title)
	assert.Equal(t, alice.ID, got.AuthorID, "author never changes")
	assert.Equal(t, int64(2), got.ViewCount, "update keeps the view counter")

	require.NoError(t, s.Articles().Delete(ctx, first.ID))
	got, err = s.Articles().FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	require.NoError(t, s.Follows().Create(ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID}))

	err := s.Follows().Create(ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = s.Follows().Create(ctx, &domain.Follow{FollowerID: alice.ID, FollowedID: alice.ID})
	require.Error(t, err, "self edge violates the check constraint")
	assert.False(t, errors.Is(err, domain.ErrDuplicate))

	exists, err := s.Follows().Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Follows().Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists, "edges are directed")

	followers, err := s.Follows().CountByFollowedID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	following, err := s.Follows().CountByFollowerID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	removed, err := s.Follows().Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Follows().Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepositoryCountsManyEdges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	star := createUser(t, s, "star")

	const n = 5
	fans := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		fan := createUser(t, s, fmt.Sprintf("fan%d", i))
		fans = append(fans, fan)
		require.NoError(t, s.Follows().Create(ctx, &domain.Follow{FollowerID: fan.ID, FollowedID: star.ID}))
	}
	for _, fan := range fans[:2] {
		require.NoError(t, s.Follows().Create(ctx, &domain.Follow{FollowerID: star.ID, FollowedID: fan.ID}))
	}

	followers, err := s.Follows().CountByFollowedID(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), followers)

	following, err := s.Follows().CountByFollowerID(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), following)

	removed, err := s.Follows().Delete(ctx, fans[3].ID, star.ID)
	require.NoError(t, err)
	require.True(t, removed)

	followers, err = s.Follows().CountByFollowedID(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n-1), followers)
}

func TestAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AuditLogs().Create(ctx, &domain.AuditLog{
		EntityType: domain.EntityTypeArticle, EntityID: 7, ActorID: 1, Action: domain.ActionTypeCreate, Details: "created",
	}))
	require.NoError(t, s.AuditLogs().Create(ctx, &domain.AuditLog{
		EntityType: domain.EntityTypeArticle, EntityID: 7, ActorID: 1, Action: domain.ActionTypeUpdate,
	}))

	logs, err := s.AuditLogs().FindByEntityID(ctx, domain.EntityTypeArticle, 7)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ActionTypeUpdate, logs[0].Action)

	logs, err = s.AuditLogs().FindByEntityID(ctx, domain.EntityTypeUser, 7)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &domain.User{Username: "ghost", PasswordHash: "x"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users().ExistsByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		return tx.Users().Create(ctx, &domain.User{Username: "kept", PasswordHash: "x"})
	})
	require.NoError(t, err)

	exists, err = s.Users().ExistsByUsername(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
			_ = tx.Users().Create(ctx, &domain.User{Username: "ghost", PasswordHash: "x"})
			panic("boom")
		})
	})

	exists, err := s.Users().ExistsByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newTestStore(t).Ping(context.Background()))
}
