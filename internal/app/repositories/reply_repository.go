package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// ReplyRepository handles replies to comments
type ReplyRepository struct {
	db *db.PostgresDB
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(database *db.PostgresDB) *ReplyRepository {
	return &ReplyRepository{db: database}
}

func selectReplies(viewerID int64) squirrel.SelectBuilder {
	return psql.Select(
		"r.id", "r.comment_id", "r.author_id", "r.content", "r.created_at", "r.updated_at",
		"(SELECT COUNT(*) FROM reply_likes l WHERE l.item_id = r.id)",
	).
		Column(squirrel.Expr("EXISTS (SELECT 1 FROM reply_likes l WHERE l.item_id = r.id AND l.user_id = ?)", viewerID)).
		Columns(authorColumns...).
		From("replies r").
		Join("users u ON u.id = r.author_id").
		LeftJoin("profiles p ON p.user_id = u.id")
}

func scanReply(row rowScanner) (*models.Reply, error) {
	var reply models.Reply
	author := &models.User{}
	authorDest, finish := scanAuthor(author)
	dest := append([]any{
		&reply.ID, &reply.CommentID, &reply.AuthorID, &reply.Content, &reply.CreatedAt, &reply.UpdatedAt,
		&reply.LikesCount, &reply.IsLiked,
	}, authorDest...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	finish()
	reply.Author = author
	return &reply, nil
}

// Create inserts a reply.
func (r *ReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	sql, args, err := psql.Insert("replies").
		Columns("comment_id", "author_id", "content").
		Values(reply.CommentID, reply.AuthorID, reply.Content).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create reply query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("commentID", reply.CommentID).Msg("Error creating reply")
		return fmt.Errorf("error creating reply: %w", err)
	}
	return nil
}

// GetByID loads a reply as seen by viewerID.
func (r *ReplyRepository) GetByID(ctx context.Context, id, viewerID int64) (*models.Reply, error) {
	sql, args, err := selectReplies(viewerID).Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get reply query: %w", err)
	}
	reply, err := scanReply(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "reply", id)
	}
	return reply, nil
}

// ListByComment returns a comment's replies, oldest first.
func (r *ReplyRepository) ListByComment(ctx context.Context, commentID, viewerID int64) ([]*models.Reply, error) {
	sql, args, err := selectReplies(viewerID).
		Where(squirrel.Eq{"r.comment_id": commentID}).
		OrderBy("r.created_at ASC", "r.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list replies query: %w", err)
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying replies: %w", err)
	}
	defer rows.Close()

	replies := []*models.Reply{}
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reply row: %w", err)
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

// Update replaces the content of a reply.
func (r *ReplyRepository) Update(ctx context.Context, reply *models.Reply) error {
	sql, args, err := psql.Update("replies").
		Set("content", reply.Content).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": reply.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update reply query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&reply.UpdatedAt); err != nil {
		return notFound(err, "reply", reply.ID)
	}
	return nil
}

// Delete removes a reply with its likes.
func (r *ReplyRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("replies").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete reply query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("reply not found")
	}
	return nil
}
