package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

const postBody = "Sharing my notes from the algorithms midterm review."

func createPost(t *testing.T, env *testEnv, author *models.User, title string, communityID *int64) *dto.PostResponse {
	t.Helper()
	p, err := env.content.CreatePost(context.Background(), author, &dto.CreatePostRequest{
		Title:       title,
		Content:     postBody,
		CommunityID: communityID,
	})
	require.NoError(t, err)
	return p
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")

	tests := []struct {
		name  string
		req   dto.CreatePostRequest
		field string
	}{
		{"short title", dto.CreatePostRequest{Title: "Hi", Content: postBody}, "title"},
		{"blank padded title", dto.CreatePostRequest{Title: "    short    ", Content: postBody}, "title"},
		{"short content", dto.CreatePostRequest{Title: "Midterm review", Content: "too short"}, "content"},
		{"bad thread type", dto.CreatePostRequest{Title: "Midterm review", Content: postBody, ThreadType: "rant"}, "threadType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.content.CreatePost(context.Background(), alice, &tt.req)
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, tt.field, apperrors.DetailsOf(err)["field"])
		})
	}
}

func TestCreatePostDefaultsToGeneral(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")

	p := createPost(t, env, alice, "Midterm review", nil)
	assert.Equal(t, string(models.ThreadGeneral), p.ThreadType)
	assert.Equal(t, "Alice Reyes", p.Author.DisplayName)
	assert.Nil(t, p.CommunityID)
}

func TestCommunityPostRequiresMembership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	staff := env.seedStaff(t, "prof", "Ada", "Lovelace")
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	c := createCommunity(t, env, staff, "CS Majors", false)

	_, err := env.content.CreatePost(ctx, alice, &dto.CreatePostRequest{Title: "Midterm review", Content: postBody, CommunityID: &c.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.communities.Join(ctx, alice, c.ID)
	require.NoError(t, err)
	p := createPost(t, env, alice, "Midterm review", &c.ID)
	assert.Equal(t, c.ID, *p.CommunityID)

	open, err := env.content.ListPosts(ctx, alice, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, open.Posts)

	listed, err := env.content.ListCommunityPosts(ctx, alice, c.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, listed.Posts, 1)
}

func TestPrivateCommunityPostsHidden(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	staff := env.seedStaff(t, "prof", "Ada", "Lovelace")
	outsider := env.seedUser(t, "outsider", "Out", "Sider")
	c := createCommunity(t, env, staff, "Thesis Group", true)
	p := createPost(t, env, staff, "Thesis timeline", &c.ID)

	_, err := env.content.GetPost(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = env.content.ListCommunityPosts(ctx, outsider, c.ID, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = env.content.TogglePostLike(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestLikeToggleScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	p := createPost(t, env, alice, "Midterm review", nil)

	like, err := env.content.TogglePostLike(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikesCount)

	feed := env.db.notificationsFor(alice.ID)
	require.Len(t, feed, 1)
	assert.Equal(t, models.NotifyLike, feed[0].Kind)
	assert.Equal(t, `Bob Cruz liked your thread "Midterm review"`, feed[0].Message)
	assert.Equal(t, p.ID, *feed[0].PostID)

	like, err = env.content.TogglePostLike(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.False(t, like.Liked)
	assert.Equal(t, 0, like.LikesCount)
	assert.Len(t, env.db.notificationsFor(alice.ID), 1, "unliking must not notify")

	got, err := env.content.GetPost(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLiked)
}

func TestSelfActionsDoNotNotify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	p := createPost(t, env, alice, "Midterm review", nil)

	_, err := env.content.TogglePostLike(ctx, alice, p.ID)
	require.NoError(t, err)
	c, err := env.content.CreateComment(ctx, alice, p.ID, &dto.ContentRequest{Content: "Adding a note"})
	require.NoError(t, err)
	_, err = env.content.ToggleCommentLike(ctx, alice, c.ID)
	require.NoError(t, err)
	r, err := env.content.CreateReply(ctx, alice, c.ID, &dto.ContentRequest{Content: "And another"})
	require.NoError(t, err)
	_, err = env.content.ToggleReplyLike(ctx, alice, r.ID)
	require.NoError(t, err)

	assert.Zero(t, env.db.notificationCount())
}

func TestCommentAndReplyNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	carol := env.seedUser(t, "carol", "", "")
	p := createPost(t, env, alice, "Midterm review", nil)

	c, err := env.content.CreateComment(ctx, bob, p.ID, &dto.ContentRequest{Content: "Thanks, this helps"})
	require.NoError(t, err)
	r, err := env.content.CreateReply(ctx, carol, c.ID, &dto.ContentRequest{Content: "Same here"})
	require.NoError(t, err)
	_, err = env.content.ToggleReplyLike(ctx, bob, r.ID)
	require.NoError(t, err)
	_, err = env.content.ToggleCommentLike(ctx, alice, c.ID)
	require.NoError(t, err)

	aliceFeed := env.db.notificationsFor(alice.ID)
	require.Len(t, aliceFeed, 1)
	assert.Equal(t, models.NotifyComment, aliceFeed[0].Kind)
	assert.Equal(t, `Bob Cruz commented on your thread post "Midterm review"`, aliceFeed[0].Message)

	bobFeed := env.db.notificationsFor(bob.ID)
	require.Len(t, bobFeed, 2)
	assert.Equal(t, models.NotifyReply, bobFeed[0].Kind)
	assert.Equal(t, "carol replied to your comment", bobFeed[0].Message, "falls back to the username")
	assert.Equal(t, models.NotifyCommentLike, bobFeed[1].Kind)

	carolFeed := env.db.notificationsFor(carol.ID)
	require.Len(t, carolFeed, 1)
	assert.Equal(t, models.NotifyReplyLike, carolFeed[0].Kind)
	assert.Equal(t, r.ID, *carolFeed[0].ReplyID)
}

func TestDeleteCommentCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	p := createPost(t, env, alice, "Midterm review", nil)

	c, err := env.content.CreateComment(ctx, bob, p.ID, &dto.ContentRequest{Content: "Thanks"})
	require.NoError(t, err)
	_, err = env.content.CreateReply(ctx, alice, c.ID, &dto.ContentRequest{Content: "Welcome"})
	require.NoError(t, err)
	_, err = env.content.ToggleCommentLike(ctx, alice, c.ID)
	require.NoError(t, err)

	err = env.content.DeleteComment(ctx, alice, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied, "post author cannot delete another user's comment on an open thread")

	require.NoError(t, env.content.DeleteComment(ctx, bob, c.ID))
	assert.Empty(t, env.db.replies)
	assert.Empty(t, env.db.likes[models.LikeComment])

	comments, err := env.content.ListComments(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	// the notification text survives its content
	feed := env.db.notificationsFor(bob.ID)
	require.NotEmpty(t, feed)
	for _, n := range feed {
		assert.Nil(t, n.CommentID)
		assert.NotEmpty(t, n.Message)
	}
}

func TestModeratorCanEditCommunityContent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	staff := env.seedStaff(t, "prof", "Ada", "Lovelace")
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	c := createCommunity(t, env, staff, "CS Majors", false)

	aliceJoin, err := env.communities.Join(ctx, alice, c.ID)
	require.NoError(t, err)
	_, err = env.communities.Join(ctx, bob, c.ID)
	require.NoError(t, err)
	p := createPost(t, env, bob, "Midterm review", &c.ID)

	_, err = env.content.UpdatePost(ctx, alice, p.ID, &dto.UpdatePostRequest{Title: ptr("Edited by moderator")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = env.content.PinPost(ctx, alice, p.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.communities.SetRole(ctx, staff, c.ID, aliceJoin.Membership.MembershipID, "moderator")
	require.NoError(t, err)

	updated, err := env.content.UpdatePost(ctx, alice, p.ID, &dto.UpdatePostRequest{Title: ptr("Edited by moderator")})
	require.NoError(t, err)
	assert.Equal(t, "Edited by moderator", updated.Title)

	pinned, err := env.content.PinPost(ctx, alice, p.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
}

func TestPinnedPostsListFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	staff := env.seedStaff(t, "prof", "Ada", "Lovelace")
	c := createCommunity(t, env, staff, "CS Majors", false)

	first := createPost(t, env, staff, "Course syllabus", &c.ID)
	createPost(t, env, staff, "Midterm review", &c.ID)
	_, err := env.content.PinPost(ctx, staff, first.ID, true)
	require.NoError(t, err)

	listed, err := env.content.ListCommunityPosts(ctx, staff, c.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, listed.Posts, 2)
	assert.Equal(t, first.ID, listed.Posts[0].ID)
}

func TestPinOpenThreadRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	p := createPost(t, env, alice, "Midterm review", nil)

	_, err := env.content.PinPost(context.Background(), alice, p.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestListMyPostsPaginates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	for range 3 {
		createPost(t, env, alice, "Midterm review", nil)
	}
	createPost(t, env, bob, "Final exam notes", nil)

	page, err := env.content.ListMyPosts(ctx, alice, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)

	page, err = env.content.ListMyPosts(ctx, alice, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
}

func TestDeletePostKeepsNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice", "Alice", "Reyes")
	bob := env.seedUser(t, "bob", "Bob", "Cruz")
	p := createPost(t, env, alice, "Midterm review", nil)

	_, err := env.content.TogglePostLike(ctx, bob, p.ID)
	require.NoError(t, err)
	require.NoError(t, env.content.DeletePost(ctx, alice, p.ID))

	_, err = env.content.GetPost(ctx, alice, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	feed := env.db.notificationsFor(alice.ID)
	require.Len(t, feed, 1)
	assert.Nil(t, feed[0].PostID)
	assert.Contains(t, feed[0].Message, "Midterm review")
}
