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

// CommentRepository handles comments on posts
type CommentRepository struct {
	db *db.PostgresDB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(database *db.PostgresDB) *CommentRepository {
	return &CommentRepository{db: database}
}

func selectComments(viewerID int64) squirrel.SelectBuilder {
	return psql.Select(
		"c.id", "c.post_id", "c.author_id", "c.content", "c.created_at", "c.updated_at",
		"(SELECT COUNT(*) FROM comment_likes l WHERE l.item_id = c.id)",
		"(SELECT COUNT(*) FROM replies rp WHERE rp.comment_id = c.id)",
	).
		Column(squirrel.Expr("EXISTS (SELECT 1 FROM comment_likes l WHERE l.item_id = c.id AND l.user_id = ?)", viewerID)).
		Columns(authorColumns...).
		From("comments c").
		Join("users u ON u.id = c.author_id").
		LeftJoin("profiles p ON p.user_id = u.id")
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	author := &models.User{}
	authorDest, finish := scanAuthor(author)
	dest := append([]any{
		&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
		&comment.LikesCount, &comment.RepliesCount, &comment.IsLiked,
	}, authorDest...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	finish()
	comment.Author = author
	return &comment, nil
}

// Create inserts a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	sql, args, err := psql.Insert("comments").
		Columns("post_id", "author_id", "content").
		Values(comment.PostID, comment.AuthorID, comment.Content).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("postID", comment.PostID).Msg("Error creating comment")
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetByID loads a comment with counters as seen by viewerID.
func (r *CommentRepository) GetByID(ctx context.Context, id, viewerID int64) (*models.Comment, error) {
	sql, args, err := selectComments(viewerID).Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}
	comment, err := scanComment(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	return comment, nil
}

// ListByPost returns a post's comments, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID, viewerID int64) ([]*models.Comment, error) {
	sql, args, err := selectComments(viewerID).
		Where(squirrel.Eq{"c.post_id": postID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// Update replaces the content of a comment.
func (r *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	sql, args, err := psql.Update("comments").
		Set("content", comment.Content).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": comment.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update comment query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&comment.UpdatedAt); err != nil {
		return notFound(err, "comment", comment.ID)
	}
	return nil
}

// Delete removes a comment with its replies and likes.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("comments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete comment query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("comment not found")
	}
	return nil
}
