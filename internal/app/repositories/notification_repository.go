package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// NotificationRepository stores notification feeds
type NotificationRepository struct {
	db *db.PostgresDB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(database *db.PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

var notificationCopyColumns = []string{
	"recipient_id", "sender_id", "kind", "post_id", "comment_id", "reply_id", "message", "is_read", "created_at",
}

// Create inserts one notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	sql, args, err := psql.Insert("notifications").
		Columns("recipient_id", "sender_id", "kind", "post_id", "comment_id", "reply_id", "message").
		Values(n.RecipientID, n.SenderID, string(n.Kind), n.PostID, n.CommentID, n.ReplyID, n.Message).
		Suffix("RETURNING id, is_read, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create notification query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n.ID, &n.IsRead, &n.CreatedAt); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// BulkCreate writes many notifications with a single COPY. IDs are not
// read back.
func (r *NotificationRepository) BulkCreate(ctx context.Context, notifications []*models.Notification) (int64, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(notifications))
	for _, n := range notifications {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		rows = append(rows, []any{
			n.RecipientID, n.SenderID, string(n.Kind), n.PostID, n.CommentID, n.ReplyID, n.Message, n.IsRead, n.CreatedAt,
		})
	}

	copied, err := r.db.Conn(ctx).CopyFrom(ctx, pgx.Identifier{"notifications"}, notificationCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		logger.Error().Err(err).Int("rows", len(rows)).Msg("Error bulk inserting notifications")
		return 0, fmt.Errorf("error bulk inserting notifications: %w", err)
	}
	return copied, nil
}

func recipientFilter(recipientID int64, unreadOnly bool) squirrel.Eq {
	where := squirrel.Eq{"n.recipient_id": recipientID}
	if unreadOnly {
		where["n.is_read"] = false
	}
	return where
}

// ListByRecipient returns one page of a user's feed, newest first, and
// the total matching.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit uint64) ([]*models.Notification, int64, error) {
	countSQL, countArgs, err := psql.Select("COUNT(*)").
		From("notifications n").
		Where(recipientFilter(recipientID, unreadOnly)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count notifications query: %w", err)
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	sql, args, err := psql.Select(
		"n.id", "n.recipient_id", "n.sender_id", "n.kind", "n.post_id", "n.comment_id", "n.reply_id",
		"n.message", "n.is_read", "n.created_at",
	).
		Columns(authorColumns...).
		From("notifications n").
		Join("users u ON u.id = n.sender_id").
		LeftJoin("profiles p ON p.user_id = u.id").
		Where(recipientFilter(recipientID, unreadOnly)).
		OrderBy("n.created_at DESC", "n.id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error querying notifications")
		return nil, 0, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		var kind string
		sender := &models.User{}
		senderDest, finish := scanAuthor(sender)
		dest := append([]any{
			&n.ID, &n.RecipientID, &n.SenderID, &kind, &n.PostID, &n.CommentID, &n.ReplyID,
			&n.Message, &n.IsRead, &n.CreatedAt,
		}, senderDest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("error scanning notification row: %w", err)
		}
		finish()
		n.Kind = models.NotificationKind(kind)
		n.Sender = sender
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, total, nil
}

// CountUnread counts a user's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("notifications n").
		Where(recipientFilter(recipientID, true)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build unread count query: %w", err)
	}
	var n int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read. It reports false when no
// notification with that id belongs to recipientID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) (bool, error) {
	sql, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build mark read query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error marking notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead marks every unread notification of recipientID and returns
// how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	sql, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark all read query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one notification owned by recipientID.
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID int64) (bool, error) {
	sql, args, err := psql.Delete("notifications").
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete notification query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
