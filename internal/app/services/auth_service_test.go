package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
)

func registerRequest(username, email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        "password123",
		ConfirmPassword: "password123",
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		BirthDate:       "2003-05-17",
		Gender:          "male",
		Role:            "student",
		Department:      "ccis",
		Course:          "bsit",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	resp, err := env.auth.Register(ctx, registerRequest("juan", "Juan@Example.edu"))
	require.NoError(t, err)
	assert.Equal(t, "juan", resp.User.Username)
	assert.Equal(t, "juan@example.edu", resp.User.Email)
	require.NotNil(t, resp.User.Profile)
	assert.Equal(t, "2003-05-17", resp.User.Profile.BirthDate)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)

	byEmail, err := env.auth.Login(ctx, &dto.LoginRequest{Identifier: "JUAN@example.edu", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, byEmail.User.ID)

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Identifier: "juan", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, &dto.LoginRequest{Identifier: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	user, err := env.auth.Authenticate(ctx, byEmail.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "juan", user.Username)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.auth.Register(ctx, registerRequest("juan", "juan@example.edu"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *dto.RegisterRequest)
		target error
	}{
		{"duplicate username", func(r *dto.RegisterRequest) { r.Email = "other@example.edu" }, apperrors.ErrResourceAlreadyExists},
		{"duplicate email", func(r *dto.RegisterRequest) { r.Username = "juan2"; r.Email = "JUAN@example.edu" }, apperrors.ErrResourceAlreadyExists},
		{"password mismatch", func(r *dto.RegisterRequest) { r.Username = "juan3"; r.ConfirmPassword = "nope12345" }, apperrors.ErrValidationFailed},
		{"future birth date", func(r *dto.RegisterRequest) { r.Username = "juan4"; r.BirthDate = "2999-01-01" }, apperrors.ErrValidationFailed},
		{"course outside department", func(r *dto.RegisterRequest) { r.Username = "juan5"; r.Course = "bsce" }, apperrors.ErrValidationFailed},
		{"bad username", func(r *dto.RegisterRequest) { r.Username = "no spaces" }, apperrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest("juan", "juan@example.edu")
			tt.mutate(req)
			_, err := env.auth.Register(ctx, req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	resp, err := env.auth.Register(ctx, registerRequest("juan", "juan@example.edu"))
	require.NoError(t, err)

	rotated, err := env.auth.RefreshToken(ctx, resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = env.auth.RefreshToken(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "a refresh token is single use")

	require.NoError(t, env.auth.Logout(ctx, rotated.RefreshToken))
	_, err = env.auth.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	// unknown tokens are ignored on logout
	assert.NoError(t, env.auth.Logout(ctx, "not-a-token"))
}

func TestInactiveAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	resp, err := env.auth.Register(ctx, registerRequest("juan", "juan@example.edu"))
	require.NoError(t, err)
	env.db.users[resp.User.ID].IsActive = false

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Identifier: "juan", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = env.auth.Authenticate(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)

	_, err = env.auth.RefreshToken(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Authenticate(context.Background(), "garbage")
	assert.Error(t, err)
}
