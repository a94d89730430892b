package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// MembershipLookup is the read side of the membership store.
type MembershipLookup interface {
	Get(ctx context.Context, communityID, userID int64) (*models.Membership, error)
}

// AuthorizationService answers role questions for users and communities
type AuthorizationService struct {
	memberships MembershipLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(memberships MembershipLookup) *AuthorizationService {
	return &AuthorizationService{memberships: memberships}
}

// CanCreateCommunity is true for staff and superusers.
func (s *AuthorizationService) CanCreateCommunity(actor *models.User) bool {
	return actor.IsStaff || actor.IsSuperuser
}

// RequireSuperuser returns a forbidden error for anyone but a superuser.
func (s *AuthorizationService) RequireSuperuser(actor *models.User, action string) error {
	if !actor.IsSuperuser {
		return apperrors.NewForbiddenError("Only superusers can " + action)
	}
	return nil
}

// MembershipOf returns the actor's membership in a community, or nil when
// there is none.
func (s *AuthorizationService) MembershipOf(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	membership, err := s.memberships.Get(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("communityID", communityID).Int64("userID", userID).Msg("Error loading membership")
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return membership, nil
}

// RequireCommunityAdmin passes for superusers and admins of the community.
func (s *AuthorizationService) RequireCommunityAdmin(ctx context.Context, actor *models.User, communityID int64) error {
	if actor.IsSuperuser {
		return nil
	}
	membership, err := s.MembershipOf(ctx, communityID, actor.ID)
	if err != nil {
		return err
	}
	if membership == nil || membership.Role != models.RoleAdmin {
		return apperrors.NewForbiddenError("Only community admins can manage roles")
	}
	return nil
}

// CanView reports whether actor may read the members and posts of a
// community. Public communities are readable by everyone; private ones only
// by members, superusers included.
func (s *AuthorizationService) CanView(ctx context.Context, actor *models.User, community *models.Community) (bool, error) {
	if !community.IsPrivate {
		return true, nil
	}
	membership, err := s.MembershipOf(ctx, community.ID, actor.ID)
	if err != nil {
		return false, err
	}
	return membership != nil, nil
}

// RequireView is CanView as an error.
func (s *AuthorizationService) RequireView(ctx context.Context, actor *models.User, community *models.Community) error {
	ok, err := s.CanView(ctx, actor, community)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("This community is private")
	}
	return nil
}

// CanModerate is true for moderators and admins of the community.
func (s *AuthorizationService) CanModerate(ctx context.Context, actor *models.User, communityID int64) (bool, error) {
	membership, err := s.MembershipOf(ctx, communityID, actor.ID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.Role.CanModerate(), nil
}

// CanModifyContent lets authors edit their own content, and community
// moderators and admins edit anything posted in their community.
func (s *AuthorizationService) CanModifyContent(ctx context.Context, actor *models.User, authorID int64, communityID *int64) (bool, error) {
	if actor.ID == authorID {
		return true, nil
	}
	if communityID == nil {
		return false, nil
	}
	return s.CanModerate(ctx, actor, *communityID)
}

// ValidateContentOwnership is CanModifyContent as an error.
func (s *AuthorizationService) ValidateContentOwnership(ctx context.Context, actor *models.User, authorID int64, communityID *int64) error {
	ok, err := s.CanModifyContent(ctx, actor, authorID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("You don't have permission to modify this content")
	}
	return nil
}
