package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
)

type fakeUsers struct {
	byName    map[string]*appModels.User
	createErr error
	created   int
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*appModels.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, apperrors.NewResourceNotFoundError("User not found")
}

func (f *fakeUsers) Create(_ context.Context, user *appModels.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	user.ID = int64(len(f.byName) + 1)
	f.byName[user.Username] = user
	return nil
}

var hasher = &auth.PasswordHasher{Cost: bcrypt.MinCost}

func TestCreateDefaultDataCreatesSuperuserOnce(t *testing.T) {
	users := &fakeUsers{byName: map[string]*appModels.User{}}
	su := Superuser{Username: "admin", Email: "admin@example.edu", Password: "changeme123"}

	require.NoError(t, CreateDefaultData(context.Background(), users, hasher, su, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(context.Background(), users, hasher, su, zerolog.Nop()))

	assert.Equal(t, 1, users.created)
	admin := users.byName["admin"]
	require.NotNil(t, admin)
	assert.True(t, admin.IsSuperuser)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsActive)
	assert.True(t, hasher.Check(admin.PasswordHash, "changeme123"))
}

func TestCreateDefaultDataSkipsWhenUnconfigured(t *testing.T) {
	users := &fakeUsers{byName: map[string]*appModels.User{}}
	require.NoError(t, CreateDefaultData(context.Background(), users, hasher, Superuser{}, zerolog.Nop()))
	assert.Zero(t, users.created)
}

func TestCreateDefaultDataToleratesRace(t *testing.T) {
	users := &fakeUsers{
		byName:    map[string]*appModels.User{},
		createErr: apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Username is already taken"),
	}
	su := Superuser{Username: "admin", Password: "changeme123"}
	assert.NoError(t, CreateDefaultData(context.Background(), users, hasher, su, zerolog.Nop()))

	users.createErr = errors.New("connection refused")
	assert.Error(t, CreateDefaultData(context.Background(), users, hasher, su, zerolog.Nop()))
}
