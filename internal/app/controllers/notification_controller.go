package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/app/services"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
)

// NotificationController serves the caller's notification feed
type NotificationController struct {
	feedService services.FeedService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(feedService services.FeedService) *NotificationController {
	return &NotificationController{feedService: feedService}
}

// GetNotifications lists the caller's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Router /notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	unreadOnly, _ := strconv.ParseBool(ctx.Query("unread"))

	feed, err := c.feedService.List(ctx.Request.Context(), user, page, size, unreadOnly)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(feed))
}

func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	count, err := c.feedService.UnreadCount(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.UnreadCountResponse{UnreadCount: count}))
}

// MarkRead marks one of the caller's notifications as read.
// Notifications owned by someone else answer 404.
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "notification")
	if !ok {
		return
	}
	if err := c.feedService.MarkRead(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification marked as read"))
}

func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	updated, err := c.feedService.MarkAllRead(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MarkAllReadResponse{Updated: updated}))
}

func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "notification")
	if !ok {
		return
	}
	if err := c.feedService.Delete(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Notification deleted"))
}
