package repositories

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

// psql is the statement builder shared by every repository.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	FollowRepository       *FollowRepository
	CommunityRepository    *CommunityRepository
	MembershipRepository   *MembershipRepository
	PostRepository         *PostRepository
	CommentRepository      *CommentRepository
	ReplyRepository        *ReplyRepository
	LikeRepository         *LikeRepository
	NotificationRepository *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(database),
		FollowRepository:       NewFollowRepository(database),
		CommunityRepository:    NewCommunityRepository(database),
		MembershipRepository:   NewMembershipRepository(database),
		PostRepository:         NewPostRepository(database),
		CommentRepository:      NewCommentRepository(database),
		ReplyRepository:        NewReplyRepository(database),
		LikeRepository:         NewLikeRepository(database),
		NotificationRepository: NewNotificationRepository(database),
	}
}

// notFound turns pgx.ErrNoRows into the application's not-found error.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewCustomError(
			fmt.Errorf("%s %d: %w", entity, id, apperrors.ErrResourceNotFound),
			fmt.Sprintf("%s not found", entity),
		)
	}
	return fmt.Errorf("error getting %s: %w", entity, err)
}

// userColumns selects a user joined with its optional profile. Callers
// alias users as u and profiles as p.
var userColumns = []string{
	"u.id", "u.username", "u.email", "u.password_hash", "u.is_active", "u.is_staff", "u.is_superuser",
	"u.created_at", "u.updated_at",
	"p.id", "p.first_name", "p.last_name", "p.birth_date", "p.gender", "p.role", "p.department", "p.course",
	"p.last_profile_details_update", "p.last_password_change", "p.created_at", "p.updated_at",
}

// authorColumns is the light projection used when a user is embedded in content rows.
var authorColumns = []string{"u.id", "u.username", "COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')"}

// scanAuthor returns destinations for authorColumns and a finisher that
// attaches the profile names.
func scanAuthor(u *models.User) ([]any, func()) {
	var first, last string
	return []any{&u.ID, &u.Username, &first, &last}, func() {
		if first != "" || last != "" {
			u.Profile = &models.Profile{UserID: u.ID, FirstName: first, LastName: last}
		}
	}
}
