package dto

import (
	"time"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
)

// NotificationResponse is one feed entry.
type NotificationResponse struct {
	ID        int64       `json:"id"`
	Kind      string      `json:"kind"`
	Sender    UserSummary `json:"sender"`
	PostID    *int64      `json:"postId,omitempty"`
	CommentID *int64      `json:"commentId,omitempty"`
	ReplyID   *int64      `json:"replyId,omitempty"`
	Message   string      `json:"message"`
	IsRead    bool        `json:"isRead"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewNotificationResponse maps a notification.
func NewNotificationResponse(n *models.Notification) NotificationResponse {
	sender := NewUserSummary(n.Sender)
	if n.Sender == nil {
		sender.ID = n.SenderID
	}
	return NotificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Sender:    sender,
		PostID:    n.PostID,
		CommentID: n.CommentID,
		ReplyID:   n.ReplyID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationListResponse is a page of the feed plus the unread total.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
	Pagination    PaginationInfo         `json:"pagination"`
}

// MarkAllReadResponse reports how many notifications changed state.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// UnreadCountResponse is the badge counter.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}
