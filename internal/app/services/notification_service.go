package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
	"github.com/christiangarcia0311/stream-server/internal/pkg/telemetry"
)

// NotificationService turns social actions into feed entries. It is called
// after the action has committed; failures are logged and never returned.
type NotificationService interface {
	PostLiked(ctx context.Context, actor *models.User, post *models.Post)
	CommentCreated(ctx context.Context, actor *models.User, post *models.Post, comment *models.Comment)
	CommentLiked(ctx context.Context, actor *models.User, comment *models.Comment)
	ReplyCreated(ctx context.Context, actor *models.User, comment *models.Comment, reply *models.Reply)
	ReplyLiked(ctx context.Context, actor *models.User, reply *models.Reply)
	UserFollowed(ctx context.Context, actor, followed *models.User)
	PostCreated(ctx context.Context, actor *models.User, post *models.Post, community *models.Community)
}

type notificationServiceImpl struct {
	notifications NotificationStore
	follows       FollowStore
	users         UserStore
	tracer        trace.Tracer
	logger        zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications NotificationStore,
	follows FollowStore,
	users UserStore,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notifications: notifications,
		follows:       follows,
		users:         users,
		tracer:        telemetry.Tracer(),
		logger:        logger,
	}
}

// displayName prefers the profile name and loads the profile when the
// actor came without one.
func (s *notificationServiceImpl) displayName(ctx context.Context, actor *models.User) string {
	if actor.Profile == nil {
		profile, err := s.users.GetProfile(ctx, actor.ID)
		switch {
		case err == nil:
			actor.Profile = profile
		case !errors.Is(err, apperrors.ErrResourceNotFound):
			s.logger.Warn().Err(err).Int64("userID", actor.ID).Msg("Failed to load profile for notification, using username")
		}
	}
	return actor.DisplayName()
}

func renderMessage(format string, args ...any) string {
	return helpers.TruncateRunes(fmt.Sprintf(format, args...), models.MaxNotificationMessageLen)
}

// notifyOne stores a single notification unless it would go to the actor.
func (s *notificationServiceImpl) notifyOne(ctx context.Context, n *models.Notification) {
	ctx, span := s.tracer.Start(ctx, "notifications."+string(n.Kind))
	defer span.End()

	if n.RecipientID == n.SenderID {
		span.SetAttributes(attribute.Int("notification.recipients", 0))
		return
	}
	span.SetAttributes(attribute.Int("notification.recipients", 1))

	if err := s.notifications.Create(ctx, n); err != nil {
		err = apperrors.NewTransientError("create notification", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create notification failed")
		s.logger.Error().Err(err).
			Str("kind", string(n.Kind)).
			Int64("recipientID", n.RecipientID).
			Int64("senderID", n.SenderID).
			Msg("Failed to create notification")
	}
}

func (s *notificationServiceImpl) PostLiked(ctx context.Context, actor *models.User, post *models.Post) {
	if actor.ID == post.AuthorID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: post.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotifyLike,
		PostID:      &post.ID,
		Message:     renderMessage("%s liked your thread \"%s\"", s.displayName(ctx, actor), post.Title),
	})
}

func (s *notificationServiceImpl) CommentCreated(ctx context.Context, actor *models.User, post *models.Post, comment *models.Comment) {
	if actor.ID == post.AuthorID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: post.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotifyComment,
		PostID:      &post.ID,
		CommentID:   &comment.ID,
		Message:     renderMessage("%s commented on your thread post \"%s\"", s.displayName(ctx, actor), post.Title),
	})
}

func (s *notificationServiceImpl) CommentLiked(ctx context.Context, actor *models.User, comment *models.Comment) {
	if actor.ID == comment.AuthorID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: comment.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotifyCommentLike,
		PostID:      &comment.PostID,
		CommentID:   &comment.ID,
		Message:     renderMessage("%s liked your comment", s.displayName(ctx, actor)),
	})
}

func (s *notificationServiceImpl) ReplyCreated(ctx context.Context, actor *models.User, comment *models.Comment, reply *models.Reply) {
	if actor.ID == comment.AuthorID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: comment.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotifyReply,
		PostID:      &comment.PostID,
		CommentID:   &comment.ID,
		ReplyID:     &reply.ID,
		Message:     renderMessage("%s replied to your comment", s.displayName(ctx, actor)),
	})
}

func (s *notificationServiceImpl) ReplyLiked(ctx context.Context, actor *models.User, reply *models.Reply) {
	if actor.ID == reply.AuthorID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: reply.AuthorID,
		SenderID:    actor.ID,
		Kind:        models.NotifyReplyLike,
		CommentID:   &reply.CommentID,
		ReplyID:     &reply.ID,
		Message:     renderMessage("%s liked your reply", s.displayName(ctx, actor)),
	})
}

func (s *notificationServiceImpl) UserFollowed(ctx context.Context, actor, followed *models.User) {
	if actor.ID == followed.ID {
		return
	}
	s.notifyOne(ctx, &models.Notification{
		RecipientID: followed.ID,
		SenderID:    actor.ID,
		Kind:        models.NotifyFollow,
		Message:     renderMessage("%s started following you", s.displayName(ctx, actor)),
	})
}

// PostCreated fans a new post out to the author's followers. Posts in a
// private community only reach followers who are members of it.
func (s *notificationServiceImpl) PostCreated(ctx context.Context, actor *models.User, post *models.Post, community *models.Community) {
	ctx, span := s.tracer.Start(ctx, "notifications."+string(models.NotifyNewPost))
	defer span.End()

	var (
		recipients []int64
		err        error
	)
	if community != nil && community.IsPrivate {
		recipients, err = s.follows.FollowerIDsInCommunity(ctx, actor.ID, community.ID)
	} else {
		recipients, err = s.follows.FollowerIDs(ctx, actor.ID)
	}
	if err != nil {
		err = apperrors.NewTransientError("load followers", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load followers failed")
		s.logger.Error().Err(err).Int64("postID", post.ID).Int64("authorID", actor.ID).Msg("Failed to load followers for new post")
		return
	}

	message := renderMessage("%s posted a new thread: \"%s\"", s.displayName(ctx, actor), post.Title)
	batch := make([]*models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		if recipientID == actor.ID {
			continue
		}
		batch = append(batch, &models.Notification{
			RecipientID: recipientID,
			SenderID:    actor.ID,
			Kind:        models.NotifyNewPost,
			PostID:      &post.ID,
			Message:     message,
		})
	}
	span.SetAttributes(attribute.Int("notification.recipients", len(batch)))
	if len(batch) == 0 {
		return
	}

	written, err := s.notifications.BulkCreate(ctx, batch)
	if err != nil {
		err = apperrors.NewTransientError("bulk create notifications", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk create failed")
		s.logger.Error().Err(err).Int64("postID", post.ID).Int("recipients", len(batch)).Msg("Failed to fan out new post")
		return
	}
	s.logger.Debug().Int64("postID", post.ID).Int64("written", written).Msg("New post fanned out")
}
