package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

type stubMemberships map[[2]int64]models.MembershipRole

func (s stubMemberships) Get(_ context.Context, communityID, userID int64) (*models.Membership, error) {
	if communityID < 0 {
		return nil, errors.New("connection reset")
	}
	role, ok := s[[2]int64{communityID, userID}]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("membership not found")
	}
	return &models.Membership{CommunityID: communityID, UserID: userID, Role: role}, nil
}

func TestAuthorizationService(t *testing.T) {
	ctx := context.Background()
	authz := NewAuthorizationService(stubMemberships{
		{1, 10}: models.RoleAdmin,
		{1, 11}: models.RoleModerator,
		{1, 12}: models.RoleMember,
	})

	admin := &models.User{ID: 10}
	mod := &models.User{ID: 11}
	member := &models.User{ID: 12}
	outsider := &models.User{ID: 13}
	root := &models.User{ID: 1, IsSuperuser: true}

	t.Run("community creation", func(t *testing.T) {
		assert.True(t, authz.CanCreateCommunity(&models.User{IsStaff: true}))
		assert.True(t, authz.CanCreateCommunity(root))
		assert.False(t, authz.CanCreateCommunity(member))
	})

	t.Run("admin gate", func(t *testing.T) {
		assert.NoError(t, authz.RequireCommunityAdmin(ctx, admin, 1))
		assert.NoError(t, authz.RequireCommunityAdmin(ctx, root, 1))
		assert.ErrorIs(t, authz.RequireCommunityAdmin(ctx, mod, 1), apperrors.ErrPermissionDenied)
		assert.ErrorIs(t, authz.RequireCommunityAdmin(ctx, outsider, 1), apperrors.ErrPermissionDenied)
	})

	t.Run("private visibility", func(t *testing.T) {
		private := &models.Community{ID: 1, IsPrivate: true}
		assert.NoError(t, authz.RequireView(ctx, member, private))
		assert.ErrorIs(t, authz.RequireView(ctx, outsider, private), apperrors.ErrPermissionDenied)
		assert.ErrorIs(t, authz.RequireView(ctx, root, private), apperrors.ErrPermissionDenied)
		assert.NoError(t, authz.RequireView(ctx, outsider, &models.Community{ID: 1}))
	})

	t.Run("content ownership", func(t *testing.T) {
		community := int64(1)
		ok, err := authz.CanModifyContent(ctx, member, member.ID, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = authz.CanModifyContent(ctx, mod, member.ID, &community)
		require.NoError(t, err)
		assert.True(t, ok, "moderators edit community posts")

		ok, err = authz.CanModifyContent(ctx, mod, member.ID, nil)
		require.NoError(t, err)
		assert.False(t, ok, "moderation does not extend to open threads")

		assert.ErrorIs(t, authz.ValidateContentOwnership(ctx, outsider, member.ID, &community), apperrors.ErrPermissionDenied)
	})

	t.Run("lookup failure surfaces", func(t *testing.T) {
		_, err := authz.MembershipOf(ctx, -1, 10)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, apperrors.ErrPermissionDenied))
	})
}
