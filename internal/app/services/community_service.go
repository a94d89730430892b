package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/christiangarcia0311/stream-server/internal/app/auth"
	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

// CommunityService defines the interface for community operations
type CommunityService interface {
	CreateCommunity(ctx context.Context, actor *models.User, req *dto.CreateCommunityRequest) (*dto.CommunityResponse, error)
	ListCommunities(ctx context.Context, actor *models.User) ([]dto.CommunityResponse, error)
	ListMyCommunities(ctx context.Context, actor *models.User) ([]dto.CommunityResponse, error)
	GetCommunity(ctx context.Context, actor *models.User, id int64) (*dto.CommunityResponse, error)
	UpdateCommunity(ctx context.Context, actor *models.User, id int64, req *dto.UpdateCommunityRequest) (*dto.CommunityResponse, error)
	DeleteCommunity(ctx context.Context, actor *models.User, id int64) error
	Join(ctx context.Context, actor *models.User, communityID int64) (*dto.JoinResponse, error)
	Leave(ctx context.Context, actor *models.User, communityID int64) error
	SetRole(ctx context.Context, actor *models.User, communityID, membershipID int64, role string) (*dto.MemberResponse, error)
	ListMembers(ctx context.Context, actor *models.User, communityID int64) (*dto.MemberListResponse, error)
}

// MembershipPolicy tunes the membership engine.
type MembershipPolicy struct {
	// GuardDemotion refuses to demote the last admin of a community.
	GuardDemotion bool
}

// communityServiceImpl implements CommunityService
type communityServiceImpl struct {
	tx           Transactor
	communities  CommunityStore
	memberships  MembershipStore
	authzService *auth.AuthorizationService
	policy       MembershipPolicy
	logger       zerolog.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(
	tx Transactor,
	communities CommunityStore,
	memberships MembershipStore,
	authzService *auth.AuthorizationService,
	policy MembershipPolicy,
	logger zerolog.Logger,
) CommunityService {
	return &communityServiceImpl{
		tx:           tx,
		communities:  communities,
		memberships:  memberships,
		authzService: authzService,
		policy:       policy,
		logger:       logger,
	}
}

// CreateCommunity creates the community and its creator's admin membership
// in one transaction.
func (s *communityServiceImpl) CreateCommunity(ctx context.Context, actor *models.User, req *dto.CreateCommunityRequest) (*dto.CommunityResponse, error) {
	if !s.authzService.CanCreateCommunity(actor) {
		return nil, apperrors.NewForbiddenError("Only staff members can create communities")
	}
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 3 {
		return nil, apperrors.NewValidationError("name", "Community name must be at least 3 characters long")
	}

	community := &models.Community{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actor.ID,
		IsActive:    true,
		IsPrivate:   req.IsPrivate,
		MemberCount: 1,
	}
	membership := &models.Membership{UserID: actor.ID, Role: models.RoleAdmin}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.communities.Create(ctx, community); err != nil {
			return err
		}
		membership.CommunityID = community.ID
		return s.memberships.Create(ctx, membership)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Str("name", name).Msg("Failed to create community")
		return nil, err
	}

	s.logger.Info().Int64("communityID", community.ID).Int64("userID", actor.ID).Msg("Community created")
	resp := dto.NewCommunityResponse(community, membership)
	return &resp, nil
}

func (s *communityServiceImpl) mapCommunities(ctx context.Context, actor *models.User, communities []*models.Community) ([]dto.CommunityResponse, error) {
	resp := make([]dto.CommunityResponse, 0, len(communities))
	for _, c := range communities {
		membership, err := s.authzService.MembershipOf(ctx, c.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, dto.NewCommunityResponse(c, membership))
	}
	return resp, nil
}

func (s *communityServiceImpl) ListCommunities(ctx context.Context, actor *models.User) ([]dto.CommunityResponse, error) {
	communities, err := s.communities.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list communities")
		return nil, err
	}
	return s.mapCommunities(ctx, actor, communities)
}

func (s *communityServiceImpl) ListMyCommunities(ctx context.Context, actor *models.User) ([]dto.CommunityResponse, error) {
	communities, err := s.communities.ListByMember(ctx, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to list user communities")
		return nil, err
	}
	return s.mapCommunities(ctx, actor, communities)
}

// activeCommunity loads a community and hides soft-deleted ones.
func (s *communityServiceImpl) activeCommunity(ctx context.Context, id int64) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !community.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrCommunityInactive, "Community not found")
	}
	return community, nil
}

func (s *communityServiceImpl) GetCommunity(ctx context.Context, actor *models.User, id int64) (*dto.CommunityResponse, error) {
	community, err := s.activeCommunity(ctx, id)
	if err != nil {
		return nil, err
	}
	membership, err := s.authzService.MembershipOf(ctx, community.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCommunityResponse(community, membership)
	return &resp, nil
}

func (s *communityServiceImpl) UpdateCommunity(ctx context.Context, actor *models.User, id int64, req *dto.UpdateCommunityRequest) (*dto.CommunityResponse, error) {
	if err := s.authzService.RequireSuperuser(actor, "update communities"); err != nil {
		return nil, err
	}
	community, err := s.activeCommunity(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len([]rune(name)) < 3 {
			return nil, apperrors.NewValidationError("name", "Community name must be at least 3 characters long")
		}
		community.Name = name
	}
	if req.Description != nil {
		community.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsPrivate != nil {
		community.IsPrivate = *req.IsPrivate
	}

	if err := s.communities.Update(ctx, community); err != nil {
		s.logger.Error().Err(err).Int64("communityID", id).Msg("Failed to update community")
		return nil, err
	}
	membership, err := s.authzService.MembershipOf(ctx, community.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCommunityResponse(community, membership)
	return &resp, nil
}

// DeleteCommunity deactivates the community; its rows stay in place.
func (s *communityServiceImpl) DeleteCommunity(ctx context.Context, actor *models.User, id int64) error {
	if err := s.authzService.RequireSuperuser(actor, "delete communities"); err != nil {
		return err
	}
	if _, err := s.activeCommunity(ctx, id); err != nil {
		return err
	}
	if err := s.communities.SetActive(ctx, id, false); err != nil {
		s.logger.Error().Err(err).Int64("communityID", id).Msg("Failed to deactivate community")
		return err
	}
	s.logger.Info().Int64("communityID", id).Int64("userID", actor.ID).Msg("Community deactivated")
	return nil
}

// Join adds the actor as a member. The community row is locked for the
// whole transaction, so member_count and the membership row change together.
func (s *communityServiceImpl) Join(ctx context.Context, actor *models.User, communityID int64) (*dto.JoinResponse, error) {
	s.logger.Debug().Int64("communityID", communityID).Int64("userID", actor.ID).Msg("Joining community")

	membership := &models.Membership{UserID: actor.ID, CommunityID: communityID, Role: models.RoleMember}
	var count int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		community, err := s.communities.GetByIDForUpdate(ctx, communityID)
		if err != nil {
			return err
		}

		_, err = s.memberships.Get(ctx, communityID, actor.ID)
		switch {
		case err == nil:
			return apperrors.NewCustomError(apperrors.ErrAlreadyMember, "You are already a member of this community")
		case !errors.Is(err, apperrors.ErrResourceNotFound):
			return err
		}
		if !community.IsActive {
			return apperrors.NewCustomError(apperrors.ErrCommunityInactive, "This community is no longer active")
		}

		if err := s.memberships.Create(ctx, membership); err != nil {
			return err
		}
		count, err = s.communities.AdjustMemberCount(ctx, communityID, 1)
		return err
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Int64("communityID", communityID).Int64("userID", actor.ID).Msg("Failed to join community")
		}
		return nil, err
	}

	membership.User = actor
	return &dto.JoinResponse{Membership: dto.NewMemberResponse(membership), MemberCount: count}, nil
}

// Leave removes the actor's membership. An admin may only leave while
// another admin remains.
func (s *communityServiceImpl) Leave(ctx context.Context, actor *models.User, communityID int64) error {
	s.logger.Debug().Int64("communityID", communityID).Int64("userID", actor.ID).Msg("Leaving community")

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		community, err := s.communities.GetByIDForUpdate(ctx, communityID)
		if err != nil {
			return err
		}
		if !community.IsActive {
			return apperrors.NewCustomError(apperrors.ErrCommunityInactive, "This community is no longer active")
		}

		membership, err := s.memberships.Get(ctx, communityID, actor.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return apperrors.NewCustomError(apperrors.ErrNotAMember, "You are not a member of this community")
			}
			return err
		}

		if membership.Role == models.RoleAdmin {
			admins, err := s.memberships.CountByRole(ctx, communityID, models.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.NewCustomError(apperrors.ErrLastAdminProtected,
					"You are the last admin of this community. Promote another member to admin before leaving")
			}
		}

		if err := s.memberships.Delete(ctx, membership.ID); err != nil {
			return err
		}
		_, err = s.communities.AdjustMemberCount(ctx, communityID, -1)
		return err
	})
	if err != nil && !apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrResourceNotFound) {
		s.logger.Error().Err(err).Int64("communityID", communityID).Int64("userID", actor.ID).Msg("Failed to leave community")
	}
	return err
}

// SetRole changes a member's role. Only community admins and superusers may
// call it.
func (s *communityServiceImpl) SetRole(ctx context.Context, actor *models.User, communityID, membershipID int64, role string) (*dto.MemberResponse, error) {
	newRole := models.MembershipRole(strings.ToLower(strings.TrimSpace(role)))

	var target *models.Membership
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		community, err := s.communities.GetByIDForUpdate(ctx, communityID)
		if err != nil {
			return err
		}
		if !community.IsActive {
			return apperrors.NewCustomError(apperrors.ErrCommunityInactive, "This community is no longer active")
		}
		if err := s.authzService.RequireCommunityAdmin(ctx, actor, communityID); err != nil {
			return err
		}
		if !newRole.Valid() {
			return apperrors.NewCustomError(apperrors.ErrInvalidRole, "Role must be one of: member, moderator, admin").
				WithDetails(map[string]interface{}{"field": "role"})
		}

		target, err = s.memberships.GetByID(ctx, membershipID)
		if err != nil {
			return err
		}
		if target.CommunityID != communityID {
			return apperrors.NewResourceNotFoundError("Membership not found in this community")
		}

		if s.policy.GuardDemotion && target.Role == models.RoleAdmin && newRole != models.RoleAdmin {
			admins, err := s.memberships.CountByRole(ctx, communityID, models.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.NewCustomError(apperrors.ErrLastAdminProtected,
					"A community must keep at least one admin")
			}
		}

		if err := s.memberships.UpdateRole(ctx, target.ID, newRole); err != nil {
			return err
		}
		target.Role = newRole
		return nil
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrResourceNotFound, apperrors.ErrPermissionDenied, apperrors.ErrValidationFailed) {
			s.logger.Error().Err(err).Int64("communityID", communityID).Int64("membershipID", membershipID).Msg("Failed to set role")
		}
		return nil, err
	}

	s.logger.Info().
		Int64("communityID", communityID).
		Int64("membershipID", membershipID).
		Str("role", string(newRole)).
		Int64("actorID", actor.ID).
		Msg("Membership role changed")
	resp := dto.NewMemberResponse(target)
	return &resp, nil
}

func (s *communityServiceImpl) ListMembers(ctx context.Context, actor *models.User, communityID int64) (*dto.MemberListResponse, error) {
	community, err := s.activeCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.RequireView(ctx, actor, community); err != nil {
		return nil, err
	}

	members, err := s.memberships.ListByCommunity(ctx, communityID)
	if err != nil {
		s.logger.Error().Err(err).Int64("communityID", communityID).Msg("Failed to list members")
		return nil, err
	}
	resp := &dto.MemberListResponse{Members: make([]dto.MemberResponse, 0, len(members)), Count: len(members)}
	for _, m := range members {
		resp.Members = append(resp.Members, dto.NewMemberResponse(m))
	}
	return resp, nil
}
