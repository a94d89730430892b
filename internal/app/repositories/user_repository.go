package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/db"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/dberrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// UserRepository handles database operations for users and their profiles
type UserRepository struct {
	db *db.PostgresDB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a user and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "is_active", "is_staff", "is_superuser").
		Values(user.Username, strings.ToLower(user.Email), user.PasswordHash, user.IsActive, user.IsStaff, user.IsSuperuser).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "uq_users_username"):
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Username is already taken").
				WithDetails(map[string]interface{}{"field": "username"})
		case dberrors.IsDuplicateConstraintError(err, "uq_users_email"):
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Email is already registered").
				WithDetails(map[string]interface{}{"field": "email"})
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}
	user.Email = strings.ToLower(user.Email)
	return nil
}

// CreateProfile inserts the profile of an existing user.
func (r *UserRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	sql, args, err := psql.Insert("profiles").
		Columns("user_id", "first_name", "last_name", "birth_date", "gender", "role", "department", "course").
		Values(profile.UserID, profile.FirstName, profile.LastName, profile.BirthDate,
			string(profile.Gender), string(profile.Role), profile.Department, profile.Course).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create profile query: %w", err)
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_profiles_user") {
			return apperrors.NewConflictError("Profile already exists")
		}
		logger.Error().Err(err).Int64("userID", profile.UserID).Msg("Error creating profile")
		return fmt.Errorf("error creating profile: %w", err)
	}
	return nil
}

func (r *UserRepository) selectUsers() squirrel.SelectBuilder {
	return psql.Select(userColumns...).
		From("users u").
		LeftJoin("profiles p ON p.user_id = u.id")
}

// scanUser reads one row produced by selectUsers.
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u                              models.User
		profileID                      *int64
		firstName, lastName            *string
		birthDate                      *time.Time
		gender, role, department, crs  *string
		lastDetails, lastPassword      *time.Time
		profileCreated, profileUpdated *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&u.CreatedAt, &u.UpdatedAt,
		&profileID, &firstName, &lastName, &birthDate, &gender, &role, &department, &crs,
		&lastDetails, &lastPassword, &profileCreated, &profileUpdated,
	)
	if err != nil {
		return nil, err
	}
	if profileID != nil {
		u.Profile = &models.Profile{
			ID:                       *profileID,
			UserID:                   u.ID,
			FirstName:                *firstName,
			LastName:                 *lastName,
			BirthDate:                *birthDate,
			Gender:                   models.Gender(*gender),
			Role:                     models.AcademicRole(*role),
			Department:               *department,
			Course:                   *crs,
			LastProfileDetailsUpdate: lastDetails,
			LastPasswordChange:       lastPassword,
			CreatedAt:                *profileCreated,
			UpdatedAt:                *profileUpdated,
		}
	}
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer, what string, id int64) (*models.User, error) {
	sql, args, err := r.selectUsers().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, what, id)
	}
	return user, nil
}

// GetByID retrieves a user with its profile.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id}, "user", id)
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.username": username}, "user", 0)
}

// GetByIdentifier matches the username, or the email case-insensitively.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"u.username": identifier},
		squirrel.Eq{"u.email": strings.ToLower(identifier)},
	}, "user", 0)
}

// GetProfile loads the profile of a user.
func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, apperrors.NewResourceNotFoundError("Profile not found")
	}
	return user.Profile, nil
}

// UpdateProfile writes the editable profile fields and the details stamp.
func (r *UserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	sql, args, err := psql.Update("profiles").
		SetMap(map[string]interface{}{
			"first_name":                  profile.FirstName,
			"last_name":                   profile.LastName,
			"birth_date":                  profile.BirthDate,
			"gender":                      string(profile.Gender),
			"role":                        string(profile.Role),
			"department":                  profile.Department,
			"course":                      profile.Course,
			"last_profile_details_update": profile.LastProfileDetailsUpdate,
			"updated_at":                  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"user_id": profile.UserID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update profile query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&profile.UpdatedAt); err != nil {
		return notFound(err, "profile", profile.UserID)
	}
	return nil
}

// UpdatePassword stores a new hash and stamps the password cooldown.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string, changedAt time.Time) error {
	sql, args, err := psql.Update("users").
		Set("password_hash", hash).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}
	tag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating password")
		return fmt.Errorf("error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("User not found")
	}

	sql, args, err = psql.Update("profiles").
		Set("last_password_change", changedAt).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build password stamp query: %w", err)
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error stamping password change: %w", err)
	}
	return nil
}

// ListActive returns active non-superuser accounts other than excludeID, by username.
func (r *UserRepository) ListActive(ctx context.Context, excludeID int64) ([]*models.User, error) {
	sql, args, err := r.selectUsers().
		Where(squirrel.Eq{"u.is_active": true, "u.is_superuser": false}).
		Where(squirrel.NotEq{"u.id": excludeID}).
		OrderBy("u.username ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}
	return r.queryUsers(ctx, sql, args)
}

func (r *UserRepository) queryUsers(ctx context.Context, sql string, args []interface{}) ([]*models.User, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying users")
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
