package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogflow/internal/domain"
)

func TestFollowLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inlineJobs{})
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	require.NoError(t, f.follows.Follow(ctx, alice.ID, bob.ID))

	err := f.follows.Follow(ctx, alice.ID, bob.ID)
	requireKind(t, err, domain.KindAlreadyFollowed)

	followers, following, err := f.follows.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), following)

	require.NoError(t, f.follows.Unfollow(ctx, alice.ID, bob.ID))

	err = f.follows.Unfollow(ctx, alice.ID, bob.ID)
	requireKind(t, err, domain.KindNotFollowed)

	followers, _, err = f.follows.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, followers)

	logs, err := f.store.AuditLogs().FindByEntityID(ctx, domain.EntityTypeFollow, bob.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestFollowCountsManyEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inlineJobs{})
	star := f.register(t, "star")

	const n = 6
	fans := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		fan := f.register(t, fmt.Sprintf("fan%d", i))
		fans = append(fans, fan)
		require.NoError(t, f.follows.Follow(ctx, fan.ID, star.ID))
	}
	for _, fan := range fans[:3] {
		require.NoError(t, f.follows.Follow(ctx, star.ID, fan.ID))
	}

	followers, following, err := f.follows.Counts(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), followers)
	assert.Equal(t, int64(3), following)

	require.NoError(t, f.follows.Unfollow(ctx, fans[0].ID, star.ID))
	require.NoError(t, f.follows.Unfollow(ctx, star.ID, fans[2].ID))

	followers, following, err = f.follows.Counts(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n-1), followers)
	assert.Equal(t, int64(2), following)

	p, err := f.users.GetProfile(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n-1), p.Followers)
	assert.Equal(t, int64(2), p.Following)

	followers, following, err = f.follows.Counts(ctx, fans[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(1), following)
}

func TestFollowRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inlineJobs{})
	alice := f.register(t, "alice")

	requireKind(t, f.follows.Follow(ctx, alice.ID, alice.ID), domain.KindCannotFollowSelf)
	requireKind(t, f.follows.Unfollow(ctx, alice.ID, alice.ID), domain.KindCannotFollowSelf)
	requireKind(t, f.follows.Follow(ctx, alice.ID, 999), domain.KindUserNotFound)
	requireKind(t, f.follows.Follow(ctx, 999, alice.ID), domain.KindUserNotFound)
	requireKind(t, f.follows.Unfollow(ctx, alice.ID, 999), domain.KindNotFollowed)
}

func TestConcurrentDoubleFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inlineJobs{})
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.follows.Follow(ctx, alice.ID, bob.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, domain.KindAlreadyFollowed)
	}
	assert.Equal(t, 1, succeeded)

	followers, _, err := f.follows.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
}
