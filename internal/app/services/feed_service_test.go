package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

func TestFeedIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	carol := env.seedUser(t, "carol", "Carol", "Diaz")

	_, err := env.users.Follow(ctx, bob, "alice")
	require.NoError(t, err)
	_, err = env.users.Follow(ctx, carol, "alice")
	require.NoError(t, err)

	feed, err := env.feed.List(ctx, alice, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 2)
	assert.Equal(t, int64(2), feed.UnreadCount)
	assert.Equal(t, "carol", feed.Notifications[0].Sender.Username, "newest first")

	id := feed.Notifications[0].ID
	assert.ErrorIs(t, env.feed.MarkRead(ctx, bob, id), apperrors.ErrResourceNotFound)
	assert.ErrorIs(t, env.feed.Delete(ctx, bob, id), apperrors.ErrResourceNotFound)

	require.NoError(t, env.feed.MarkRead(ctx, alice, id))
	unread, err := env.feed.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	unreadOnly, err := env.feed.List(ctx, alice, 1, 10, true)
	require.NoError(t, err)
	require.Len(t, unreadOnly.Notifications, 1)
	assert.Equal(t, "bob", unreadOnly.Notifications[0].Sender.Username)

	require.NoError(t, env.feed.Delete(ctx, alice, id))
	feed, err = env.feed.List(ctx, alice, 1, 10, false)
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 1)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	for _, name := range []string{"bob", "carol", "dave"} {
		u := env.seedUser(t, name, "", "")
		_, err := env.users.Follow(ctx, u, "alice")
		require.NoError(t, err)
	}

	n, err := env.feed.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = env.feed.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)

	unread, err := env.feed.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestFeedPagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	for _, name := range []string{"bob", "carol", "dave", "erin", "frank"} {
		u := env.seedUser(t, name, "", "")
		_, err := env.users.Follow(ctx, u, "alice")
		require.NoError(t, err)
	}

	page, err := env.feed.List(ctx, alice, 2, 2, false)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, int64(5), page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, int64(5), page.UnreadCount)
}
