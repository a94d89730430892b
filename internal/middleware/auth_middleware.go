package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
)

const (
	currentUserKey = "currentUser"
	userIDKey      = "userID"
)

// Authenticator resolves an access token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// tokenFromHeader accepts "Bearer <jwt>" and, for clients that forget the
// scheme or quote the value, a bare JWT.
func tokenFromHeader(header string) (string, bool) {
	token, err := auth.ExtractBearerToken(strings.Trim(strings.TrimSpace(header), "\"'"))
	return token, err == nil
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	detail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorAPIResponse(detail))
}

// JWTAuth middleware for JWT token validation. On success the acting user
// is stored in the context; read it with CurrentUser.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}
		token, ok := tokenFromHeader(header)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		user, err := m.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
			case errors.Is(err, apperrors.ErrAccountDisabled):
				abortUnauthorized(c, dto.ErrorCodeAccountDisabled, "Account is disabled")
			case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked):
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			default:
				HandleAPIError(c, err)
			}
			return
		}

		c.Set(currentUserKey, user)
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// SuperuserRequired rejects everyone but superusers. It must run after JWTAuth.
func (m *AuthMiddleware) SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User information not found")
			return
		}
		if !user.IsSuperuser {
			detail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorAPIResponse(detail))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by JWTAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
