package models

import "time"

// NotificationKind identifies the social action behind a notification.
type NotificationKind string

const (
	NotifyLike        NotificationKind = "like"
	NotifyComment     NotificationKind = "comment"
	NotifyCommentLike NotificationKind = "comment_like"
	NotifyReply       NotificationKind = "reply"
	NotifyReplyLike   NotificationKind = "reply_like"
	NotifyFollow      NotificationKind = "follow"
	NotifyNewPost     NotificationKind = "new_post"
)

// MaxNotificationMessageLen is measured in runes.
const MaxNotificationMessageLen = 255

// Notification is a feed entry. Content references become nil when the
// referenced row is deleted; Message keeps the text rendered at creation.
type Notification struct {
	ID          int64            `json:"id" db:"id"`
	RecipientID int64            `json:"recipientId" db:"recipient_id"`
	SenderID    int64            `json:"senderId" db:"sender_id"`
	Kind        NotificationKind `json:"kind" db:"kind"`
	PostID      *int64           `json:"postId,omitempty" db:"post_id"`
	CommentID   *int64           `json:"commentId,omitempty" db:"comment_id"`
	ReplyID     *int64           `json:"replyId,omitempty" db:"reply_id"`
	Message     string           `json:"message" db:"message"`
	IsRead      bool             `json:"isRead" db:"is_read"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`

	Sender *User `json:"sender,omitempty"`
}
