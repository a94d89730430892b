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

// MembershipRepository handles community membership rows
type MembershipRepository struct {
	db *db.PostgresDB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(database *db.PostgresDB) *MembershipRepository {
	return &MembershipRepository{db: database}
}

var membershipColumns = []string{"m.id", "m.user_id", "m.community_id", "m.role", "m.joined_at"}

func scanMembership(row rowScanner) (*models.Membership, error) {
	var m models.Membership
	var role string
	if err := row.Scan(&m.ID, &m.UserID, &m.CommunityID, &role, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.Role = models.MembershipRole(role)
	return &m, nil
}

// Create inserts a membership. A second row for the same user and
// community fails with ErrAlreadyMember.
func (r *MembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	sql, args, err := psql.Insert("memberships").
		Columns("user_id", "community_id", "role").
		Values(membership.UserID, membership.CommunityID, string(membership.Role)).
		Suffix("RETURNING id, joined_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create membership query: %w", err)
	}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&membership.ID, &membership.JoinedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_memberships_user_community") {
			return apperrors.NewCustomError(apperrors.ErrAlreadyMember, "You are already a member of this community")
		}
		logger.Error().Err(err).
			Int64("userID", membership.UserID).
			Int64("communityID", membership.CommunityID).
			Msg("Error creating membership")
		return fmt.Errorf("error creating membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) getOne(ctx context.Context, where squirrel.Eq, id int64) (*models.Membership, error) {
	sql, args, err := psql.Select(membershipColumns...).From("memberships m").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get membership query: %w", err)
	}
	m, err := scanMembership(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "membership", id)
	}
	return m, nil
}

// Get returns userID's membership in communityID.
func (r *MembershipRepository) Get(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	return r.getOne(ctx, squirrel.Eq{"m.community_id": communityID, "m.user_id": userID}, 0)
}

// GetByID returns a membership by its own id.
func (r *MembershipRepository) GetByID(ctx context.Context, id int64) (*models.Membership, error) {
	return r.getOne(ctx, squirrel.Eq{"m.id": id}, id)
}

// Delete removes a membership row.
func (r *MembershipRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("memberships").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete membership query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("membership not found")
	}
	return nil
}

// UpdateRole changes the role on a membership.
func (r *MembershipRepository) UpdateRole(ctx context.Context, id int64, role models.MembershipRole) error {
	sql, args, err := psql.Update("memberships").Set("role", string(role)).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update role query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("membership not found")
	}
	return nil
}

// CountByRole counts the members of communityID holding role.
func (r *MembershipRepository) CountByRole(ctx context.Context, communityID int64, role models.MembershipRole) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("memberships").
		Where(squirrel.Eq{"community_id": communityID, "role": string(role)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count role query: %w", err)
	}
	var n int
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting roles: %w", err)
	}
	return n, nil
}

// ListByCommunity returns the members with their users, admins first.
func (r *MembershipRepository) ListByCommunity(ctx context.Context, communityID int64) ([]*models.Membership, error) {
	columns := append(append([]string{}, membershipColumns...), authorColumns...)
	sql, args, err := psql.Select(columns...).
		From("memberships m").
		Join("users u ON u.id = m.user_id").
		LeftJoin("profiles p ON p.user_id = u.id").
		Where(squirrel.Eq{"m.community_id": communityID}).
		OrderBy("CASE m.role WHEN 'admin' THEN 0 WHEN 'moderator' THEN 1 ELSE 2 END", "m.joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list members query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("communityID", communityID).Msg("Error querying members")
		return nil, fmt.Errorf("error querying members: %w", err)
	}
	defer rows.Close()

	members := []*models.Membership{}
	for rows.Next() {
		var m models.Membership
		var role string
		user := &models.User{}
		authorDest, finish := scanAuthor(user)
		dest := append([]any{&m.ID, &m.UserID, &m.CommunityID, &role, &m.JoinedAt}, authorDest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		finish()
		m.Role = models.MembershipRole(role)
		m.User = user
		members = append(members, &m)
	}
	return members, rows.Err()
}
