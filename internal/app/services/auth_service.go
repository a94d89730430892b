package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
	"github.com/christiangarcia0311/stream-server/internal/pkg/validation"
)

// AuthService handles registration, login and token lifecycle
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type authServiceImpl struct {
	tx         Transactor
	users      UserStore
	sessions   SessionStore
	jwtService *auth.JWTService
	hasher     *auth.PasswordHasher
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tx Transactor,
	users UserStore,
	sessions SessionStore,
	jwtService *auth.JWTService,
	hasher *auth.PasswordHasher,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		tx:         tx,
		users:      users,
		sessions:   sessions,
		jwtService: jwtService,
		hasher:     hasher,
		logger:     logger,
	}
}

func validateRegistration(req *dto.RegisterRequest) (time.Time, error) {
	if err := validation.Username(req.Username); err != nil {
		return time.Time{}, err
	}
	if err := validation.Password(req.Password); err != nil {
		return time.Time{}, err
	}
	if req.Password != req.ConfirmPassword {
		return time.Time{}, apperrors.NewValidationError("confirmPassword", "Passwords do not match")
	}
	if err := validation.Name("firstName", req.FirstName); err != nil {
		return time.Time{}, err
	}
	if err := validation.Name("lastName", req.LastName); err != nil {
		return time.Time{}, err
	}
	birth, err := time.Parse(dto.DateLayout, req.BirthDate)
	if err != nil || birth.After(time.Now()) {
		return time.Time{}, apperrors.NewValidationError("birthDate", "Birth date must be a past date in YYYY-MM-DD format")
	}
	if !courseInDepartment(req.Department, req.Course) {
		return time.Time{}, apperrors.NewValidationError("course", "Course is not offered by the selected department")
	}
	return birth, nil
}

// Register creates the account and its profile in one transaction, then
// signs the new user in.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	birth, err := validateRegistration(req)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, err
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		IsActive:     true,
	}
	profile := &models.Profile{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		BirthDate:  birth,
		Gender:     models.Gender(req.Gender),
		Role:       models.AcademicRole(req.Role),
		Department: req.Department,
		Course:     req.Course,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return s.users.CreateProfile(ctx, profile)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			s.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		}
		return nil, err
	}
	user.Profile = profile
	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User registered")

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: dto.NewUserResponse(user, true), Tokens: *tokens}, nil
}

// Login accepts a username or an email. Unknown users, wrong passwords and
// inactive accounts all fail the same way.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByIdentifier(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid username/email or password")
		}
		return nil, err
	}
	if !user.IsActive || !s.hasher.Check(user.PasswordHash, req.Password) {
		s.logger.Warn().Str("identifier", req.Identifier).Msg("Failed login attempt")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid username/email or password")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{User: dto.NewUserResponse(user, true), Tokens: *tokens}, nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to generate tokens")
		return nil, err
	}
	if err := s.sessions.Save(ctx, auth.HashRefreshToken(pair.RefreshToken), user.ID, pair.RefreshExpiresAt); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to store refresh session")
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        pair.ExpiresIn,
		RefreshExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

// RefreshToken rotates a refresh token: the old one is consumed and a new
// pair is issued.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	sess, err := s.sessions.Consume(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid or expired refresh token")
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid or expired refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrAccountDisabled, "Account is disabled")
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, auth.HashRefreshToken(refreshToken)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to revoke refresh session")
		return err
	}
	return nil
}

// Authenticate validates an access token and loads the acting user.
func (s *authServiceImpl) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}
