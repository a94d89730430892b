// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
)

// actor returns the authenticated user or writes a 401 and returns false.
func actor(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorAPIResponse(errorDetail))
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter.
func idParam(ctx *gin.Context, name, entity string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+entity+" ID").
			WithField(name).
			WithDetails(entity + " ID must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorAPIResponse(errorDetail))
		return 0, false
	}
	return id, true
}
