package dto

import (
	"time"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
)

// CreateCommunityRequest represents the request to create a community
type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"max=5000"`
	IsPrivate   bool   `json:"isPrivate"`
}

// UpdateCommunityRequest is a partial update; nil fields are left alone.
type UpdateCommunityRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	IsPrivate   *bool   `json:"isPrivate"`
}

// CommunityResponse represents a community as seen by the caller.
type CommunityResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"createdBy"`
	IsActive    bool      `json:"isActive"`
	IsPrivate   bool      `json:"isPrivate"`
	MemberCount int       `json:"memberCount"`
	MyRole      string    `json:"myRole,omitempty"`
	IsMember    bool      `json:"isMember"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewCommunityResponse maps a community; membership may be nil.
func NewCommunityResponse(c *models.Community, membership *models.Membership) CommunityResponse {
	resp := CommunityResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedBy:   c.CreatedBy,
		IsActive:    c.IsActive,
		IsPrivate:   c.IsPrivate,
		MemberCount: c.MemberCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if membership != nil {
		resp.IsMember = true
		resp.MyRole = string(membership.Role)
	}
	return resp
}

// MemberResponse is one membership row.
type MemberResponse struct {
	MembershipID int64       `json:"membershipId"`
	CommunityID  int64       `json:"communityId"`
	User         UserSummary `json:"user"`
	Role         string      `json:"role"`
	JoinedAt     time.Time   `json:"joinedAt"`
}

// NewMemberResponse maps a membership with its loaded user.
func NewMemberResponse(m *models.Membership) MemberResponse {
	summary := NewUserSummary(m.User)
	if m.User == nil {
		summary.ID = m.UserID
	}
	return MemberResponse{
		MembershipID: m.ID,
		CommunityID:  m.CommunityID,
		User:         summary,
		Role:         string(m.Role),
		JoinedAt:     m.JoinedAt,
	}
}

// MemberListResponse lists a community's members.
type MemberListResponse struct {
	Members []MemberResponse `json:"members"`
	Count   int              `json:"count"`
}

// JoinResponse is returned after joining.
type JoinResponse struct {
	Membership  MemberResponse `json:"membership"`
	MemberCount int            `json:"memberCount"`
}

// SetRoleRequest changes a member's role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
