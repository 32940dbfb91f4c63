package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogflow/internal/domain"
)

func TestUsersAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u := &domain.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(ctx, u))

	u.Username = "mutated"
	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got.Name = "changed"
	again, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Users().Create(ctx, &domain.User{Username: "alice"}))
	err := s.Users().Create(ctx, &domain.User{Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestWithinTxRestoresSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Users().Create(ctx, &domain.User{Username: "alice"}))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &domain.User{Username: "bob"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users().ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = s.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConcurrentFollowCreatesOneEdge(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := &domain.User{Username: "a"}
	b := &domain.User{Username: "b"}
	require.NoError(t, s.Users().Create(ctx, a))
	require.NoError(t, s.Users().Create(ctx, b))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Follows().Create(ctx, &domain.Follow{FollowerID: a.ID, FollowedID: b.ID})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	}
	assert.Equal(t, 1, ok)
}

func TestArticleListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	author := &domain.User{Username: "a"}
	require.NoError(t, s.Users().Create(ctx, author))

	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		a := &domain.Article{AuthorID: author.ID, Title: "t", Content: "c"}
		require.NoError(t, s.Articles().Create(ctx, a))
		ids = append(ids, a.ID)
	}

	list, err := s.Articles().List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	list, err = s.Articles().List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[0], list[0].ID)

	list, err = s.Articles().List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.Articles().List(ctx, 0, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = s.Articles().List(ctx, math.MaxInt, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.Articles().List(ctx, -20, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := &domain.User{Username: "a"}
	b := &domain.User{Username: "b"}
	require.NoError(t, s.Users().Create(ctx, a))
	require.NoError(t, s.Users().Create(ctx, b))
	require.NoError(t, s.Follows().Create(ctx, &domain.Follow{FollowerID: a.ID, FollowedID: b.ID}))
	require.NoError(t, s.Articles().Create(ctx, &domain.Article{AuthorID: b.ID, Title: "t", Content: "c"}))

	require.NoError(t, s.Users().Delete(ctx, b.ID))

	n, err := s.Follows().CountByFollowerID(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := s.Articles().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}
