package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/logger"
)

// errorMapping ties an error kind to its HTTP status and error code. The
// list is ordered: subtypes come before the kind they wrap.
type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

var errorMappings = []errorMapping{
	{apperrors.ErrCommunityInactive, http.StatusNotFound, dto.ErrorCodeCommunityInactive, "Community not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrCooldownActive, http.StatusForbidden, dto.ErrorCodeCooldownActive, "Action is on cooldown"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},

	{apperrors.ErrAlreadyMember, http.StatusBadRequest, dto.ErrorCodeAlreadyMember, "Already a member"},
	{apperrors.ErrNotAMember, http.StatusBadRequest, dto.ErrorCodeNotAMember, "Not a member"},
	{apperrors.ErrLastAdminProtected, http.StatusBadRequest, dto.ErrorCodeLastAdminProtected, "Community must keep an admin"},
	{apperrors.ErrNotFollowing, http.StatusBadRequest, dto.ErrorCodeNotFollowing, "Not following"},
	{apperrors.ErrAlreadyFollowing, http.StatusConflict, dto.ErrorCodeAlreadyFollowing, "Already following"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	{apperrors.ErrInvalidRole, http.StatusBadRequest, dto.ErrorCodeInvalidRole, "Invalid role"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrAccountDisabled, http.StatusUnauthorized, dto.ErrorCodeAccountDisabled, "Account is disabled"},
}

// StatusOf returns the HTTP status and error code for err.
func StatusOf(err error) (int, dto.ErrorCode) {
	if m, ok := lookup(err); ok {
		return m.status, m.code
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

func lookup(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	m, ok := lookup(err)
	if !ok {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorAPIResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
		return
	}

	message := m.message
	if msg, ok := apperrors.MessageOf(err); ok {
		message = msg
	}
	detail := dto.NewErrorDetail(m.code, message)
	if details := apperrors.DetailsOf(err); len(details) > 0 {
		if field, ok := details["field"].(string); ok {
			detail = detail.WithField(field)
		}
		detail = detail.WithDetails(details)
	}
	if m.status < http.StatusInternalServerError {
		detail = detail.WithSeverity(dto.ErrorSeverityWarning)
	}

	c.AbortWithStatusJSON(m.status, dto.NewErrorAPIResponse(detail))
}
