package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
	"github.com/christiangarcia0311/stream-server/internal/pkg/validation"
)

// UserService manages profiles and the follower graph
type UserService interface {
	GetMe(ctx context.Context, actor *models.User) (*dto.UserProfileResponse, error)
	GetProfile(ctx context.Context, actor *models.User, username string) (*dto.UserProfileResponse, error)
	UpdateProfileDetails(ctx context.Context, actor *models.User, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	ChangePassword(ctx context.Context, actor *models.User, req *dto.ChangePasswordRequest) error
	Follow(ctx context.Context, actor *models.User, username string) (*dto.FollowResponse, error)
	Unfollow(ctx context.Context, actor *models.User, username string) (*dto.FollowResponse, error)
	ListFollowers(ctx context.Context, actor *models.User, username string) ([]dto.UserListItem, error)
	ListFollowing(ctx context.Context, actor *models.User, username string) ([]dto.UserListItem, error)
	ListUsers(ctx context.Context, actor *models.User) ([]dto.UserListItem, error)
}

type userServiceImpl struct {
	tx        Transactor
	users     UserStore
	follows   FollowStore
	notifier  NotificationService
	hasher    *auth.PasswordHasher
	cooldowns models.Cooldowns
	now       func() time.Time
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	tx Transactor,
	users UserStore,
	follows FollowStore,
	notifier NotificationService,
	hasher *auth.PasswordHasher,
	cooldowns models.Cooldowns,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		tx:        tx,
		users:     users,
		follows:   follows,
		notifier:  notifier,
		hasher:    hasher,
		cooldowns: cooldowns,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *userServiceImpl) activeUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewResourceNotFoundError("user not found")
	}
	return user, nil
}

// profileOf loads the counters for a profile page concurrently.
func (s *userServiceImpl) profileOf(ctx context.Context, actor, user *models.User) (*dto.UserProfileResponse, error) {
	self := actor.ID == user.ID
	resp := &dto.UserProfileResponse{
		User:   dto.NewUserResponse(user, self),
		IsSelf: self,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.CountFollowers(gctx, user.ID)
		resp.FollowersCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.CountFollowing(gctx, user.ID)
		resp.FollowingCount = n
		return err
	})
	if !self {
		g.Go(func() error {
			ok, err := s.follows.Exists(gctx, actor.ID, user.ID)
			resp.IsFollowing = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to load profile counters")
		return nil, err
	}

	if self && user.Profile != nil {
		now := s.now()
		resp.Cooldowns = &dto.CooldownInfo{
			CanUpdateDetails:        user.Profile.CanUpdateDetails(now, s.cooldowns.Details),
			DaysUntilDetailsUpdate:  user.Profile.DaysUntilDetailsUpdate(now, s.cooldowns.Details),
			CanChangePassword:       user.Profile.CanChangePassword(now, s.cooldowns.Password),
			DaysUntilPasswordChange: user.Profile.DaysUntilPasswordChange(now, s.cooldowns.Password),
		}
	}
	return resp, nil
}

func (s *userServiceImpl) GetMe(ctx context.Context, actor *models.User) (*dto.UserProfileResponse, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, actor, user)
}

func (s *userServiceImpl) GetProfile(ctx context.Context, actor *models.User, username string) (*dto.UserProfileResponse, error) {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, actor, user)
}

func courseInDepartment(department, course string) bool {
	return slices.Contains(models.Departments[department], course)
}

// UpdateProfileDetails applies a partial profile update once the details
// cooldown has elapsed, and restarts the cooldown.
func (s *userServiceImpl) UpdateProfileDetails(ctx context.Context, actor *models.User, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	profile, err := s.users.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !profile.CanUpdateDetails(now, s.cooldowns.Details) {
		days := profile.DaysUntilDetailsUpdate(now, s.cooldowns.Details)
		return nil, apperrors.NewCooldownError(
			fmt.Sprintf("You can update your profile details again in %d day(s)", days), days)
	}

	changed := false
	if req.FirstName != nil {
		if err := validation.Name("firstName", *req.FirstName); err != nil {
			return nil, err
		}
		profile.FirstName = strings.TrimSpace(*req.FirstName)
		changed = true
	}
	if req.LastName != nil {
		if err := validation.Name("lastName", *req.LastName); err != nil {
			return nil, err
		}
		profile.LastName = strings.TrimSpace(*req.LastName)
		changed = true
	}
	if req.BirthDate != nil {
		birth, err := time.Parse(dto.DateLayout, *req.BirthDate)
		if err != nil || birth.After(now) {
			return nil, apperrors.NewValidationError("birthDate", "Birth date must be a past date in YYYY-MM-DD format")
		}
		profile.BirthDate = birth
		changed = true
	}
	if req.Gender != nil {
		profile.Gender = models.Gender(*req.Gender)
		changed = true
	}
	if req.Role != nil {
		profile.Role = models.AcademicRole(*req.Role)
		changed = true
	}
	if req.Department != nil {
		profile.Department = *req.Department
		changed = true
	}
	if req.Course != nil {
		profile.Course = *req.Course
		changed = true
	}
	if !changed {
		return nil, apperrors.NewValidationError("profile", "No profile fields to update")
	}
	if !courseInDepartment(profile.Department, profile.Course) {
		return nil, apperrors.NewValidationError("course", "Course is not offered by the selected department")
	}

	profile.LastProfileDetailsUpdate = &now
	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to update profile")
		return nil, err
	}
	s.logger.Info().Int64("userID", actor.ID).Msg("Profile details updated")

	return s.GetMe(ctx, actor)
}

// ChangePassword verifies the current password and stores the new one once
// the password cooldown has elapsed.
func (s *userServiceImpl) ChangePassword(ctx context.Context, actor *models.User, req *dto.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user.Profile == nil {
		return apperrors.NewResourceNotFoundError("Profile not found")
	}

	now := s.now()
	if !user.Profile.CanChangePassword(now, s.cooldowns.Password) {
		days := user.Profile.DaysUntilPasswordChange(now, s.cooldowns.Password)
		return apperrors.NewCooldownError(
			fmt.Sprintf("You can change your password again in %d day(s)", days), days)
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.NewValidationError("confirmPassword", "Passwords do not match")
	}
	if err := validation.Password(req.NewPassword); err != nil {
		return err
	}
	if !s.hasher.Check(user.PasswordHash, req.OldPassword) {
		return apperrors.NewValidationError("oldPassword", "Current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.users.UpdatePassword(ctx, user.ID, hash, now)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to change password")
		return err
	}
	s.logger.Info().Int64("userID", actor.ID).Msg("Password changed")
	return nil
}

func (s *userServiceImpl) Follow(ctx context.Context, actor *models.User, username string) (*dto.FollowResponse, error) {
	target, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, apperrors.NewValidationError("username", "You cannot follow yourself")
	}

	exists, err := s.follows.Exists(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrAlreadyFollowing, "You are already following this user")
	}
	if _, err := s.follows.Create(ctx, actor.ID, target.ID); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error().Err(err).Int64("followerID", actor.ID).Int64("followingID", target.ID).Msg("Failed to follow user")
		}
		return nil, err
	}

	s.notifier.UserFollowed(ctx, actor, target)

	return &dto.FollowResponse{Following: true, FollowersCount: s.followerCount(ctx, target.ID)}, nil
}

func (s *userServiceImpl) Unfollow(ctx context.Context, actor *models.User, username string) (*dto.FollowResponse, error) {
	target, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.Delete(ctx, actor.ID, target.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("followerID", actor.ID).Int64("followingID", target.ID).Msg("Failed to unfollow user")
		return nil, err
	}
	if !removed {
		return nil, apperrors.NewCustomError(apperrors.ErrNotFollowing, "You are not following this user")
	}

	return &dto.FollowResponse{Following: false, FollowersCount: s.followerCount(ctx, target.ID)}, nil
}

// followerCount is best effort: the follow change has already been
// committed, so a failed count is logged and reported as zero.
func (s *userServiceImpl) followerCount(ctx context.Context, userID int64) int {
	count, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to count followers")
		return 0
	}
	return count
}

// listItems marks which users the actor follows.
func (s *userServiceImpl) listItems(ctx context.Context, actor *models.User, users []*models.User) ([]dto.UserListItem, error) {
	following, err := s.follows.FollowingIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(following))
	for _, id := range following {
		set[id] = struct{}{}
	}

	items := make([]dto.UserListItem, 0, len(users))
	for _, u := range users {
		_, ok := set[u.ID]
		items = append(items, dto.UserListItem{UserSummary: dto.NewUserSummary(u), IsFollowing: ok})
	}
	return items, nil
}

func (s *userServiceImpl) ListFollowers(ctx context.Context, actor *models.User, username string) ([]dto.UserListItem, error) {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.follows.ListFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.listItems(ctx, actor, users)
}

func (s *userServiceImpl) ListFollowing(ctx context.Context, actor *models.User, username string) ([]dto.UserListItem, error) {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.follows.ListFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.listItems(ctx, actor, users)
}

// ListUsers lists active regular users other than the actor.
func (s *userServiceImpl) ListUsers(ctx context.Context, actor *models.User) ([]dto.UserListItem, error) {
	users, err := s.users.ListActive(ctx, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		return nil, err
	}
	return s.listItems(ctx, actor, users)
}
