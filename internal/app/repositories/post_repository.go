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

// PostRepository handles open threads and community posts
type PostRepository struct {
	db *db.PostgresDB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(database *db.PostgresDB) *PostRepository {
	return &PostRepository{db: database}
}

// selectPosts projects posts (t) with counters, the viewer's like flag and the author.
func selectPosts(viewerID int64) squirrel.SelectBuilder {
	return psql.Select(
		"t.id", "t.author_id", "t.community_id", "t.title", "t.content", "t.thread_type", "t.is_pinned",
		"t.created_at", "t.updated_at",
		"(SELECT COUNT(*) FROM post_likes l WHERE l.item_id = t.id)",
		"(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = t.id)",
	).
		Column(squirrel.Expr("EXISTS (SELECT 1 FROM post_likes l WHERE l.item_id = t.id AND l.user_id = ?)", viewerID)).
		Columns(authorColumns...).
		From("posts t").
		Join("users u ON u.id = t.author_id").
		LeftJoin("profiles p ON p.user_id = u.id")
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var threadType string
	author := &models.User{}
	authorDest, finish := scanAuthor(author)
	dest := append([]any{
		&post.ID, &post.AuthorID, &post.CommunityID, &post.Title, &post.Content, &threadType, &post.IsPinned,
		&post.CreatedAt, &post.UpdatedAt, &post.LikesCount, &post.CommentsCount, &post.IsLiked,
	}, authorDest...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	finish()
	post.ThreadType = models.ThreadType(threadType)
	post.Author = author
	return &post, nil
}

// Create inserts a post and fills in its ID and timestamps.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	sql, args, err := psql.Insert("posts").
		Columns("author_id", "community_id", "title", "content", "thread_type", "is_pinned").
		Values(post.AuthorID, post.CommunityID, post.Title, post.Content, string(post.ThreadType), post.IsPinned).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("authorID", post.AuthorID).Msg("Error creating post")
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

// GetByID loads a post with counters as seen by viewerID.
func (r *PostRepository) GetByID(ctx context.Context, id, viewerID int64) (*models.Post, error) {
	sql, args, err := selectPosts(viewerID).Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}
	post, err := scanPost(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return post, nil
}

func applyPostFilter(b squirrel.SelectBuilder, filter models.PostFilter) squirrel.SelectBuilder {
	switch {
	case filter.CommunityID != nil:
		b = b.Where(squirrel.Eq{"t.community_id": *filter.CommunityID})
	case filter.AuthorID == nil:
		b = b.Where(squirrel.Eq{"t.community_id": nil})
	}
	if filter.AuthorID != nil {
		b = b.Where(squirrel.Eq{"t.author_id": *filter.AuthorID})
	}
	return b
}

// List returns one page of posts and the total matching filter. Community
// listings put pinned posts first.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter, viewerID int64, offset, limit uint64) ([]*models.Post, int64, error) {
	countSQL, countArgs, err := applyPostFilter(psql.Select("COUNT(*)").From("posts t"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count posts query: %w", err)
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting posts: %w", err)
	}

	b := applyPostFilter(selectPosts(viewerID), filter)
	if filter.CommunityID != nil {
		b = b.OrderBy("t.is_pinned DESC")
	}
	sql, args, err := b.OrderBy("t.created_at DESC", "t.id DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list posts query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying posts")
		return nil, 0, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating post rows: %w", err)
	}
	return posts, total, nil
}

// Update writes title, content and thread type.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	sql, args, err := psql.Update("posts").
		SetMap(map[string]interface{}{
			"title":       post.Title,
			"content":     post.Content,
			"thread_type": string(post.ThreadType),
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": post.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update post query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&post.UpdatedAt); err != nil {
		return notFound(err, "post", post.ID)
	}
	return nil
}

// SetPinned pins or unpins a post.
func (r *PostRepository) SetPinned(ctx context.Context, id int64, pinned bool) error {
	sql, args, err := psql.Update("posts").Set("is_pinned", pinned).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build pin post query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error pinning post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("post not found")
	}
	return nil
}

// Delete removes a post. Comments, replies and likes go with it through
// foreign keys; notifications lose their references but stay.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete post query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("postID", id).Msg("Error deleting post")
		return fmt.Errorf("error deleting post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("post not found")
	}
	return nil
}
