package models

import "time"

// Community is a topical group. Deleting one only clears IsActive.
type Community struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedBy   int64     `json:"createdBy" db:"created_by"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	IsPrivate   bool      `json:"isPrivate" db:"is_private"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// MembershipRole is a user's role inside one community.
type MembershipRole string

const (
	RoleMember    MembershipRole = "member"
	RoleModerator MembershipRole = "moderator"
	RoleAdmin     MembershipRole = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r MembershipRole) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate is true for moderators and admins.
func (r MembershipRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Membership links a user to a community with a role.
type Membership struct {
	ID          int64          `json:"id" db:"id"`
	UserID      int64          `json:"userId" db:"user_id"`
	CommunityID int64          `json:"communityId" db:"community_id"`
	Role        MembershipRole `json:"role" db:"role"`
	JoinedAt    time.Time      `json:"joinedAt" db:"joined_at"`

	User *User `json:"user,omitempty"`
}
