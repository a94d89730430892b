package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// LikeRepository toggles likes on posts, comments and replies. Each target
// has its own table with the same shape.
type LikeRepository struct {
	db *db.PostgresDB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(database *db.PostgresDB) *LikeRepository {
	return &LikeRepository{db: database}
}

func likeTable(target models.LikeTarget) (string, error) {
	switch target {
	case models.LikePost:
		return "post_likes", nil
	case models.LikeComment:
		return "comment_likes", nil
	case models.LikeReply:
		return "reply_likes", nil
	}
	return "", fmt.Errorf("unknown like target %q", target)
}

// Toggle inserts the like when absent and removes it when present. It
// returns true when the like now exists. Run it inside a transaction with
// the follow-up Count so the pair is consistent.
func (r *LikeRepository) Toggle(ctx context.Context, target models.LikeTarget, itemID, userID int64) (bool, error) {
	table, err := likeTable(target)
	if err != nil {
		return false, err
	}

	sql, args, err := psql.Insert(table).
		Columns("item_id", "user_id").
		Values(itemID, userID).
		Suffix("ON CONFLICT ON CONSTRAINT uq_" + table + "_item_user DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build like insert query: %w", err)
	}

	var id int64
	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Str("target", string(target)).Int64("itemID", itemID).Msg("Error inserting like")
		return false, fmt.Errorf("error inserting like: %w", err)
	}

	sql, args, err = psql.Delete(table).Where(squirrel.Eq{"item_id": itemID, "user_id": userID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build like delete query: %w", err)
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return false, fmt.Errorf("error deleting like: %w", err)
	}
	return false, nil
}

// Count returns the number of likes on an item.
func (r *LikeRepository) Count(ctx context.Context, target models.LikeTarget, itemID int64) (int, error) {
	table, err := likeTable(target)
	if err != nil {
		return 0, err
	}
	sql, args, err := psql.Select("COUNT(*)").From(table).Where(squirrel.Eq{"item_id": itemID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build like count query: %w", err)
	}
	var n int
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting likes: %w", err)
	}
	return n, nil
}
