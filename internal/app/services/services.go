// Package services holds the business rules. Services depend on the store
// interfaces below; the repositories package provides the PostgreSQL
// implementations.
package services

import (
	"context"
	"time"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/session"
)

// Transactor runs fn inside one database transaction. Stores called with
// the ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore persists accounts and profiles.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdatePassword(ctx context.Context, userID int64, hash string, changedAt time.Time) error
	ListActive(ctx context.Context, excludeID int64) ([]*models.User, error)
}

// FollowStore persists the follower graph.
type FollowStore interface {
	Create(ctx context.Context, followerID, followingID int64) (*models.Follow, error)
	Delete(ctx context.Context, followerID, followingID int64) (bool, error)
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
	ListFollowers(ctx context.Context, userID int64) ([]*models.User, error)
	ListFollowing(ctx context.Context, userID int64) ([]*models.User, error)
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	FollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	FollowerIDsInCommunity(ctx context.Context, userID, communityID int64) ([]int64, error)
}

// CommunityStore persists communities.
type CommunityStore interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id int64) (*models.Community, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Community, error)
	ListActive(ctx context.Context) ([]*models.Community, error)
	ListByMember(ctx context.Context, userID int64) ([]*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	SetActive(ctx context.Context, id int64, active bool) error
	AdjustMemberCount(ctx context.Context, id int64, delta int) (int, error)
}

// MembershipStore persists memberships.
type MembershipStore interface {
	Create(ctx context.Context, membership *models.Membership) error
	Get(ctx context.Context, communityID, userID int64) (*models.Membership, error)
	GetByID(ctx context.Context, id int64) (*models.Membership, error)
	Delete(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role models.MembershipRole) error
	CountByRole(ctx context.Context, communityID int64, role models.MembershipRole) (int, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]*models.Membership, error)
}

// PostStore persists posts.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID int64) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter, viewerID int64, offset, limit uint64) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	SetPinned(ctx context.Context, id int64, pinned bool) error
	Delete(ctx context.Context, id int64) error
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id, viewerID int64) (*models.Comment, error)
	ListByPost(ctx context.Context, postID, viewerID int64) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
}

// ReplyStore persists replies.
type ReplyStore interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id, viewerID int64) (*models.Reply, error)
	ListByComment(ctx context.Context, commentID, viewerID int64) ([]*models.Reply, error)
	Update(ctx context.Context, reply *models.Reply) error
	Delete(ctx context.Context, id int64) error
}

// LikeStore toggles and counts likes.
type LikeStore interface {
	Toggle(ctx context.Context, target models.LikeTarget, itemID, userID int64) (bool, error)
	Count(ctx context.Context, target models.LikeTarget, itemID int64) (int, error)
}

// NotificationStore persists notification feeds.
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	BulkCreate(ctx context.Context, notifications []*models.Notification) (int64, error)
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit uint64) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID int64) (int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) (bool, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id, recipientID int64) (bool, error)
}

// SessionStore keeps refresh-token sessions.
type SessionStore interface {
	Save(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error
	Consume(ctx context.Context, tokenHash string) (*session.Session, error)
	Revoke(ctx context.Context, tokenHash string) error
}
