package dto

import (
	"time"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
)

// UserSummary is the compact user shape embedded in other responses.
type UserSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// NewUserSummary maps a user; a nil user yields a zero summary.
func NewUserSummary(u *models.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName()}
}

// ProfileResponse is the public part of a profile.
type ProfileResponse struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	BirthDate  string `json:"birthDate"`
	Gender     string `json:"gender"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Course     string `json:"course"`
}

// UserResponse is a full account view.
type UserResponse struct {
	ID          int64            `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email,omitempty"`
	IsStaff     bool             `json:"isStaff"`
	IsSuperuser bool             `json:"isSuperuser"`
	Profile     *ProfileResponse `json:"profile,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewUserResponse maps a user. includeEmail is false when the viewer is someone else.
func NewUserResponse(u *models.User, includeEmail bool) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
	if includeEmail {
		resp.Email = u.Email
	}
	if p := u.Profile; p != nil {
		resp.Profile = &ProfileResponse{
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			BirthDate:  p.BirthDate.Format(DateLayout),
			Gender:     string(p.Gender),
			Role:       string(p.Role),
			Department: p.Department,
			Course:     p.Course,
		}
	}
	return resp
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// UserProfileResponse is a profile page: the user plus relationship counters.
type UserProfileResponse struct {
	User           UserResponse  `json:"user"`
	FollowersCount int           `json:"followersCount"`
	FollowingCount int           `json:"followingCount"`
	IsFollowing    bool          `json:"isFollowing"`
	IsSelf         bool          `json:"isSelf"`
	Cooldowns      *CooldownInfo `json:"cooldowns,omitempty"`
}

// CooldownInfo tells the owner when they may edit again.
type CooldownInfo struct {
	CanUpdateDetails        bool `json:"canUpdateDetails"`
	DaysUntilDetailsUpdate  int  `json:"daysUntilDetailsUpdate"`
	CanChangePassword       bool `json:"canChangePassword"`
	DaysUntilPasswordChange int  `json:"daysUntilPasswordChange"`
}

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName   *string `json:"lastName" binding:"omitempty,min=1,max=100"`
	BirthDate  *string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
	Gender     *string `json:"gender" binding:"omitempty,oneof=male female"`
	Role       *string `json:"role" binding:"omitempty,oneof=student faculty"`
	Department *string `json:"department" binding:"omitempty,department"`
	Course     *string `json:"course" binding:"omitempty,course"`
}

// ChangePasswordRequest changes the caller's password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// UserListItem is a row in user, follower and following lists.
type UserListItem struct {
	UserSummary
	IsFollowing bool `json:"isFollowing"`
}

// FollowResponse reports the relationship after follow or unfollow.
type FollowResponse struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followersCount"`
}
