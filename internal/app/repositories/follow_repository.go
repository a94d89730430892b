package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/dberrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// FollowRepository handles the follower graph
type FollowRepository struct {
	db *db.PostgresDB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(database *db.PostgresDB) *FollowRepository {
	return &FollowRepository{db: database}
}

// Create adds the edge follower -> following.
func (r *FollowRepository) Create(ctx context.Context, followerID, followingID int64) (*models.Follow, error) {
	sql, args, err := psql.Insert("follows").
		Columns("follower_id", "following_id").
		Values(followerID, followingID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create follow query: %w", err)
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&follow.ID, &follow.CreatedAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "uq_follows_pair"):
			return nil, apperrors.NewCustomError(apperrors.ErrAlreadyFollowing, "You are already following this user")
		case dberrors.IsCheckViolation(err, "chk_follows_not_self"):
			return nil, apperrors.NewBadRequestError("You cannot follow yourself")
		}
		logger.Error().Err(err).Int64("followerID", followerID).Int64("followingID", followingID).Msg("Error creating follow")
		return nil, fmt.Errorf("error creating follow: %w", err)
	}
	return follow, nil
}

// Delete removes the edge and reports whether it existed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID int64) (bool, error) {
	sql, args, err := psql.Delete("follows").
		Where(squirrel.Eq{"follower_id": followerID, "following_id": followingID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete follow query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error deleting follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether follower follows following.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	sql, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("follows").
		Where(squirrel.Eq{"follower_id": followerID, "following_id": followingID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build follow exists query: %w", err)
	}
	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking follow: %w", err)
	}
	return exists, nil
}

func (r *FollowRepository) count(ctx context.Context, column string, userID int64) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").From("follows").Where(squirrel.Eq{column: userID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build follow count query: %w", err)
	}
	var n int
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting follows: %w", err)
	}
	return n, nil
}

// CountFollowers counts users following userID.
func (r *FollowRepository) CountFollowers(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, "following_id", userID)
}

// CountFollowing counts users userID follows.
func (r *FollowRepository) CountFollowing(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, "follower_id", userID)
}

func (r *FollowRepository) listUsers(ctx context.Context, joinOn, filterColumn string, userID int64) ([]*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("follows f").
		Join("users u ON u.id = f." + joinOn).
		LeftJoin("profiles p ON p.user_id = u.id").
		Where(squirrel.Eq{"f." + filterColumn: userID}).
		OrderBy("f.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build follow list query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying follows: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning follow row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListFollowers returns the users following userID, newest first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID int64) ([]*models.User, error) {
	return r.listUsers(ctx, "follower_id", "following_id", userID)
}

// ListFollowing returns the users userID follows, newest first.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID int64) ([]*models.User, error) {
	return r.listUsers(ctx, "following_id", "follower_id", userID)
}

func (r *FollowRepository) queryIDs(ctx context.Context, b squirrel.SelectBuilder) ([]int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build follower id query: %w", err)
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying follower ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning follower id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FollowingIDs returns the ids userID follows.
func (r *FollowRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, psql.Select("following_id").From("follows").Where(squirrel.Eq{"follower_id": userID}))
}

// FollowerIDs returns the ids of every user following userID.
func (r *FollowRepository) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, psql.Select("f.follower_id").
		From("follows f").
		Where(squirrel.Eq{"f.following_id": userID}).
		OrderBy("f.follower_id"))
}

// FollowerIDsInCommunity narrows FollowerIDs to members of communityID.
func (r *FollowRepository) FollowerIDsInCommunity(ctx context.Context, userID, communityID int64) ([]int64, error) {
	return r.queryIDs(ctx, psql.Select("f.follower_id").
		From("follows f").
		Join("memberships m ON m.user_id = f.follower_id").
		Where(squirrel.Eq{"f.following_id": userID, "m.community_id": communityID}).
		OrderBy("f.follower_id"))
}
