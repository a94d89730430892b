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

var communityColumns = []string{
	"c.id", "c.name", "c.description", "c.created_by", "c.is_active", "c.is_private", "c.member_count",
	"c.created_at", "c.updated_at",
}

// CommunityRepository handles database operations for communities
type CommunityRepository struct {
	db *db.PostgresDB
}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(database *db.PostgresDB) *CommunityRepository {
	return &CommunityRepository{db: database}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommunity(row rowScanner) (*models.Community, error) {
	var c models.Community
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.IsActive, &c.IsPrivate, &c.MemberCount,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func nameTaken(err error) error {
	if dberrors.IsDuplicateConstraintError(err, "uq_communities_name") {
		return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "A community with this name already exists").
			WithDetails(map[string]interface{}{"field": "name"})
	}
	return nil
}

// Create inserts a community and fills in its ID and timestamps.
func (r *CommunityRepository) Create(ctx context.Context, community *models.Community) error {
	sql, args, err := psql.Insert("communities").
		Columns("name", "description", "created_by", "is_active", "is_private", "member_count").
		Values(community.Name, community.Description, community.CreatedBy, community.IsActive, community.IsPrivate, community.MemberCount).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create community query: %w", err)
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&community.ID, &community.CreatedAt, &community.UpdatedAt)
	if err != nil {
		if taken := nameTaken(err); taken != nil {
			return taken
		}
		logger.Error().Err(err).Str("name", community.Name).Msg("Error creating community")
		return fmt.Errorf("error creating community: %w", err)
	}
	return nil
}

func (r *CommunityRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Community, error) {
	b := psql.Select(communityColumns...).From("communities c").Where(squirrel.Eq{"c.id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get community query: %w", err)
	}
	community, err := scanCommunity(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "community", id)
	}
	return community, nil
}

// GetByID retrieves a community regardless of its active flag.
func (r *CommunityRepository) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate locks the community row until the surrounding
// transaction ends. Membership changes take this lock first.
func (r *CommunityRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Community, error) {
	return r.get(ctx, id, true)
}

func (r *CommunityRepository) list(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Community, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list communities query: %w", err)
	}
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying communities")
		return nil, fmt.Errorf("error querying communities: %w", err)
	}
	defer rows.Close()

	communities := []*models.Community{}
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning community row: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// ListActive returns every active community by name.
func (r *CommunityRepository) ListActive(ctx context.Context) ([]*models.Community, error) {
	return r.list(ctx, psql.Select(communityColumns...).
		From("communities c").
		Where(squirrel.Eq{"c.is_active": true}).
		OrderBy("c.name ASC"))
}

// ListByMember returns the active communities userID belongs to.
func (r *CommunityRepository) ListByMember(ctx context.Context, userID int64) ([]*models.Community, error) {
	return r.list(ctx, psql.Select(communityColumns...).
		From("communities c").
		Join("memberships m ON m.community_id = c.id").
		Where(squirrel.Eq{"m.user_id": userID, "c.is_active": true}).
		OrderBy("c.name ASC"))
}

// Update writes name, description and privacy.
func (r *CommunityRepository) Update(ctx context.Context, community *models.Community) error {
	sql, args, err := psql.Update("communities").
		SetMap(map[string]interface{}{
			"name":        community.Name,
			"description": community.Description,
			"is_private":  community.IsPrivate,
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": community.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update community query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&community.UpdatedAt); err != nil {
		if taken := nameTaken(err); taken != nil {
			return taken
		}
		return notFound(err, "community", community.ID)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *CommunityRepository) SetActive(ctx context.Context, id int64, active bool) error {
	sql, args, err := psql.Update("communities").
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set active query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("community not found")
	}
	return nil
}

// AdjustMemberCount adds delta to member_count in the database, never
// going below zero, and returns the stored value.
func (r *CommunityRepository) AdjustMemberCount(ctx context.Context, id int64, delta int) (int, error) {
	sql, args, err := psql.Update("communities").
		Set("member_count", squirrel.Expr("GREATEST(member_count + ?, 0)", delta)).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING member_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build member count query: %w", err)
	}
	var count int
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, notFound(err, "community", id)
	}
	return count, nil
}
