package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appModels "github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
)

// UserStore is the part of the user repository the seeder needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*appModels.User, error)
	Create(ctx context.Context, user *appModels.User) error
}

// Superuser describes the administrative account created on first start.
type Superuser struct {
	Username string
	Email    string
	Password string
}

// CreateDefaultData makes sure the configured superuser exists. It does
// nothing when no superuser is configured and never touches an existing
// account.
func CreateDefaultData(ctx context.Context, users UserStore, hasher *auth.PasswordHasher, su Superuser, lgr zerolog.Logger) error {
	username := strings.TrimSpace(su.Username)
	if username == "" || su.Password == "" {
		lgr.Debug().Msg("No superuser configured, skipping seed")
		return nil
	}

	existing, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsSuperuser {
			lgr.Warn().Str("username", username).Msg("Seed username belongs to a regular account, leaving it untouched")
		}
		return nil
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return fmt.Errorf("looking up superuser: %w", err)
	}

	hash, err := hasher.Hash(su.Password)
	if err != nil {
		return err
	}

	user := &appModels.User{
		Username:     username,
		Email:        strings.TrimSpace(su.Email),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := users.Create(ctx, user); err != nil {
		// Another instance won the race.
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			return nil
		}
		return fmt.Errorf("creating superuser: %w", err)
	}

	lgr.Info().Int64("userID", user.ID).Str("username", username).Msg("Superuser created")
	return nil
}
