package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
)

// FeedService reads and manages a user's own notifications. Every operation
// is scoped to the acting user.
type FeedService interface {
	List(ctx context.Context, actor *models.User, page, size int, unreadOnly bool) (*dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, actor *models.User) (int64, error)
	MarkRead(ctx context.Context, actor *models.User, id int64) error
	MarkAllRead(ctx context.Context, actor *models.User) (int64, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type feedServiceImpl struct {
	notifications NotificationStore
	logger        zerolog.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(notifications NotificationStore, logger zerolog.Logger) FeedService {
	return &feedServiceImpl{notifications: notifications, logger: logger}
}

func (s *feedServiceImpl) List(ctx context.Context, actor *models.User, page, size int, unreadOnly bool) (*dto.NotificationListResponse, error) {
	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	items, total, err := s.notifications.ListByRecipient(ctx, actor.ID, unreadOnly, offset, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to list notifications")
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to count unread notifications")
		return nil, err
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(items)),
		UnreadCount:   unread,
		Pagination:    helpers.NewPaginationInfo(total, page, size),
	}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, dto.NewNotificationResponse(n))
	}
	return resp, nil
}

func (s *feedServiceImpl) UnreadCount(ctx context.Context, actor *models.User) (int64, error) {
	return s.notifications.CountUnread(ctx, actor.ID)
}

func (s *feedServiceImpl) MarkRead(ctx context.Context, actor *models.User, id int64) error {
	ok, err := s.notifications.MarkRead(ctx, id, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("notificationID", id).Msg("Failed to mark notification read")
		return err
	}
	if !ok {
		return apperrors.NewResourceNotFoundError("Notification not found")
	}
	return nil
}

func (s *feedServiceImpl) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to mark all notifications read")
		return 0, err
	}
	return n, nil
}

func (s *feedServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	ok, err := s.notifications.Delete(ctx, id, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("notificationID", id).Msg("Failed to delete notification")
		return err
	}
	if !ok {
		return apperrors.NewResourceNotFoundError("Notification not found")
	}
	return nil
}
