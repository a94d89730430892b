package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/christiangarcia0311/stream-server/internal/app/auth"
	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
	"github.com/christiangarcia0311/stream-server/internal/pkg/validation"
)

// ContentService defines the operations on posts, comments, replies and likes
type ContentService interface {
	CreatePost(ctx context.Context, actor *models.User, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	GetPost(ctx context.Context, actor *models.User, id int64) (*dto.PostResponse, error)
	ListPosts(ctx context.Context, actor *models.User, page, size int) (*dto.PostListResponse, error)
	ListMyPosts(ctx context.Context, actor *models.User, page, size int) (*dto.PostListResponse, error)
	ListCommunityPosts(ctx context.Context, actor *models.User, communityID int64, page, size int) (*dto.PostListResponse, error)
	UpdatePost(ctx context.Context, actor *models.User, id int64, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, actor *models.User, id int64) error
	PinPost(ctx context.Context, actor *models.User, id int64, pinned bool) (*dto.PostResponse, error)
	TogglePostLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error)

	CreateComment(ctx context.Context, actor *models.User, postID int64, req *dto.ContentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, actor *models.User, postID int64) ([]dto.CommentResponse, error)
	UpdateComment(ctx context.Context, actor *models.User, id int64, req *dto.ContentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *models.User, id int64) error
	ToggleCommentLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error)

	CreateReply(ctx context.Context, actor *models.User, commentID int64, req *dto.ContentRequest) (*dto.ReplyResponse, error)
	ListReplies(ctx context.Context, actor *models.User, commentID int64) ([]dto.ReplyResponse, error)
	UpdateReply(ctx context.Context, actor *models.User, id int64, req *dto.ContentRequest) (*dto.ReplyResponse, error)
	DeleteReply(ctx context.Context, actor *models.User, id int64) error
	ToggleReplyLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error)
}

type contentServiceImpl struct {
	tx           Transactor
	posts        PostStore
	comments     CommentStore
	replies      ReplyStore
	likes        LikeStore
	communities  CommunityStore
	authzService *auth.AuthorizationService
	notifier     NotificationService
	policy       validation.ContentPolicy
	logger       zerolog.Logger
}

// NewContentService creates a new ContentService
func NewContentService(
	tx Transactor,
	posts PostStore,
	comments CommentStore,
	replies ReplyStore,
	likes LikeStore,
	communities CommunityStore,
	authzService *auth.AuthorizationService,
	notifier NotificationService,
	policy validation.ContentPolicy,
	logger zerolog.Logger,
) ContentService {
	return &contentServiceImpl{
		tx:           tx,
		posts:        posts,
		comments:     comments,
		replies:      replies,
		likes:        likes,
		communities:  communities,
		authzService: authzService,
		notifier:     notifier,
		policy:       policy,
		logger:       logger,
	}
}

func parseThreadType(raw string) (models.ThreadType, error) {
	if raw == "" {
		return models.ThreadGeneral, nil
	}
	t := models.ThreadType(strings.ToLower(raw))
	if !t.Valid() {
		return "", apperrors.NewValidationError("threadType",
			"Thread type must be one of: general, discussion, question, guide, announcement, accomplishment")
	}
	return t, nil
}

// readableCommunity loads an active community the actor may read.
func (s *contentServiceImpl) readableCommunity(ctx context.Context, actor *models.User, id int64) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !community.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrCommunityInactive, "Community not found")
	}
	if err := s.authzService.RequireView(ctx, actor, community); err != nil {
		return nil, err
	}
	return community, nil
}

// readablePost loads a post with the actor's view of it. Community posts
// follow the community's visibility.
func (s *contentServiceImpl) readablePost(ctx context.Context, actor *models.User, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if post.CommunityID != nil {
		if _, err := s.readableCommunity(ctx, actor, *post.CommunityID); err != nil {
			return nil, err
		}
	}
	return post, nil
}

func (s *contentServiceImpl) readableComment(ctx context.Context, actor *models.User, id int64) (*models.Comment, *models.Post, error) {
	comment, err := s.comments.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.readablePost(ctx, actor, comment.PostID)
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

func (s *contentServiceImpl) readableReply(ctx context.Context, actor *models.User, id int64) (*models.Reply, *models.Post, error) {
	reply, err := s.replies.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	_, post, err := s.readableComment(ctx, actor, reply.CommentID)
	if err != nil {
		return nil, nil, err
	}
	return reply, post, nil
}

func (s *contentServiceImpl) CreatePost(ctx context.Context, actor *models.User, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	if err := s.policy.Post(req.Title, req.Content); err != nil {
		return nil, err
	}
	threadType, err := parseThreadType(req.ThreadType)
	if err != nil {
		return nil, err
	}

	var community *models.Community
	if req.CommunityID != nil {
		community, err = s.communities.GetByID(ctx, *req.CommunityID)
		if err != nil {
			return nil, err
		}
		if !community.IsActive {
			return nil, apperrors.NewCustomError(apperrors.ErrCommunityInactive, "This community is no longer active")
		}
		membership, err := s.authzService.MembershipOf(ctx, community.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		if membership == nil {
			return nil, apperrors.NewForbiddenError("You must be a member of this community to post")
		}
	}

	post := &models.Post{
		AuthorID:    actor.ID,
		CommunityID: req.CommunityID,
		Title:       strings.TrimSpace(req.Title),
		Content:     strings.TrimSpace(req.Content),
		ThreadType:  threadType,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to create post")
		return nil, err
	}
	post.Author = actor

	s.notifier.PostCreated(ctx, actor, post, community)

	resp := dto.NewPostResponse(post)
	return &resp, nil
}

func (s *contentServiceImpl) GetPost(ctx context.Context, actor *models.User, id int64) (*dto.PostResponse, error) {
	post, err := s.readablePost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPostResponse(post)
	return &resp, nil
}

func (s *contentServiceImpl) listPosts(ctx context.Context, actor *models.User, filter models.PostFilter, page, size int) (*dto.PostListResponse, error) {
	page, size = helpers.NormalizePage(page, size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	posts, total, err := s.posts.List(ctx, filter, actor.ID, offset, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to list posts")
		return nil, err
	}
	resp := &dto.PostListResponse{
		Posts:      make([]dto.PostResponse, 0, len(posts)),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, dto.NewPostResponse(p))
	}
	return resp, nil
}

// ListPosts lists open threads, newest first.
func (s *contentServiceImpl) ListPosts(ctx context.Context, actor *models.User, page, size int) (*dto.PostListResponse, error) {
	return s.listPosts(ctx, actor, models.PostFilter{}, page, size)
}

// ListMyPosts lists everything the actor has posted.
func (s *contentServiceImpl) ListMyPosts(ctx context.Context, actor *models.User, page, size int) (*dto.PostListResponse, error) {
	return s.listPosts(ctx, actor, models.PostFilter{AuthorID: &actor.ID}, page, size)
}

// ListCommunityPosts lists a community's posts, pinned first.
func (s *contentServiceImpl) ListCommunityPosts(ctx context.Context, actor *models.User, communityID int64, page, size int) (*dto.PostListResponse, error) {
	if _, err := s.readableCommunity(ctx, actor, communityID); err != nil {
		return nil, err
	}
	return s.listPosts(ctx, actor, models.PostFilter{CommunityID: &communityID}, page, size)
}

func (s *contentServiceImpl) UpdatePost(ctx context.Context, actor *models.User, id int64, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.readablePost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, post.AuthorID, post.CommunityID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = strings.TrimSpace(*req.Content)
	}
	if req.ThreadType != nil {
		if post.ThreadType, err = parseThreadType(*req.ThreadType); err != nil {
			return nil, err
		}
	}
	if err := s.policy.Post(post.Title, post.Content); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		s.logger.Error().Err(err).Int64("postID", id).Msg("Failed to update post")
		return nil, err
	}
	resp := dto.NewPostResponse(post)
	return &resp, nil
}

// DeletePost removes the post with its comments, replies and likes.
func (s *contentServiceImpl) DeletePost(ctx context.Context, actor *models.User, id int64) error {
	post, err := s.readablePost(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, post.AuthorID, post.CommunityID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("postID", id).Msg("Failed to delete post")
		return err
	}
	return nil
}

func (s *contentServiceImpl) PinPost(ctx context.Context, actor *models.User, id int64, pinned bool) (*dto.PostResponse, error) {
	post, err := s.readablePost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if post.CommunityID == nil {
		return nil, apperrors.NewBadRequestError("Only community posts can be pinned")
	}
	ok, err := s.authzService.CanModerate(ctx, actor, *post.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewForbiddenError("Only moderators and admins can pin posts")
	}
	if err := s.posts.SetPinned(ctx, id, pinned); err != nil {
		return nil, err
	}
	post.IsPinned = pinned
	resp := dto.NewPostResponse(post)
	return &resp, nil
}

// toggleLike flips the actor's like inside one transaction and returns the
// new state with the resulting count.
func (s *contentServiceImpl) toggleLike(ctx context.Context, target models.LikeTarget, itemID, userID int64) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if liked, err = s.likes.Toggle(ctx, target, itemID, userID); err != nil {
			return err
		}
		count, err = s.likes.Count(ctx, target, itemID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("target", string(target)).Int64("itemID", itemID).Msg("Failed to toggle like")
		return false, 0, err
	}
	return liked, count, nil
}

func (s *contentServiceImpl) TogglePostLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error) {
	post, err := s.readablePost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.toggleLike(ctx, models.LikePost, post.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if liked {
		s.notifier.PostLiked(ctx, actor, post)
	}
	return &dto.LikeResponse{Liked: liked, LikesCount: count}, nil
}

func (s *contentServiceImpl) CreateComment(ctx context.Context, actor *models.User, postID int64, req *dto.ContentRequest) (*dto.CommentResponse, error) {
	if err := s.policy.Comment(req.Content); err != nil {
		return nil, err
	}
	post, err := s.readablePost(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: actor.ID, Content: strings.TrimSpace(req.Content)}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error().Err(err).Int64("postID", postID).Msg("Failed to create comment")
		return nil, err
	}
	comment.Author = actor

	s.notifier.CommentCreated(ctx, actor, post, comment)

	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *contentServiceImpl) ListComments(ctx context.Context, actor *models.User, postID int64) ([]dto.CommentResponse, error) {
	if _, err := s.readablePost(ctx, actor, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("postID", postID).Msg("Failed to list comments")
		return nil, err
	}
	resp := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, dto.NewCommentResponse(c))
	}
	return resp, nil
}

func (s *contentServiceImpl) UpdateComment(ctx context.Context, actor *models.User, id int64, req *dto.ContentRequest) (*dto.CommentResponse, error) {
	comment, post, err := s.readableComment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, comment.AuthorID, post.CommunityID); err != nil {
		return nil, err
	}
	if err := s.policy.Comment(req.Content); err != nil {
		return nil, err
	}
	comment.Content = strings.TrimSpace(req.Content)
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

// DeleteComment removes the comment with its replies and likes.
func (s *contentServiceImpl) DeleteComment(ctx context.Context, actor *models.User, id int64) error {
	comment, post, err := s.readableComment(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, comment.AuthorID, post.CommunityID); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

func (s *contentServiceImpl) ToggleCommentLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error) {
	comment, _, err := s.readableComment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.toggleLike(ctx, models.LikeComment, comment.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if liked {
		s.notifier.CommentLiked(ctx, actor, comment)
	}
	return &dto.LikeResponse{Liked: liked, LikesCount: count}, nil
}

func (s *contentServiceImpl) CreateReply(ctx context.Context, actor *models.User, commentID int64, req *dto.ContentRequest) (*dto.ReplyResponse, error) {
	if err := s.policy.Reply(req.Content); err != nil {
		return nil, err
	}
	comment, _, err := s.readableComment(ctx, actor, commentID)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{CommentID: comment.ID, AuthorID: actor.ID, Content: strings.TrimSpace(req.Content)}
	if err := s.replies.Create(ctx, reply); err != nil {
		s.logger.Error().Err(err).Int64("commentID", commentID).Msg("Failed to create reply")
		return nil, err
	}
	reply.Author = actor

	s.notifier.ReplyCreated(ctx, actor, comment, reply)

	resp := dto.NewReplyResponse(reply)
	return &resp, nil
}

func (s *contentServiceImpl) ListReplies(ctx context.Context, actor *models.User, commentID int64) ([]dto.ReplyResponse, error) {
	if _, _, err := s.readableComment(ctx, actor, commentID); err != nil {
		return nil, err
	}
	replies, err := s.replies.ListByComment(ctx, commentID, actor.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("commentID", commentID).Msg("Failed to list replies")
		return nil, err
	}
	resp := make([]dto.ReplyResponse, 0, len(replies))
	for _, r := range replies {
		resp = append(resp, dto.NewReplyResponse(r))
	}
	return resp, nil
}

func (s *contentServiceImpl) UpdateReply(ctx context.Context, actor *models.User, id int64, req *dto.ContentRequest) (*dto.ReplyResponse, error) {
	reply, post, err := s.readableReply(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, reply.AuthorID, post.CommunityID); err != nil {
		return nil, err
	}
	if err := s.policy.Reply(req.Content); err != nil {
		return nil, err
	}
	reply.Content = strings.TrimSpace(req.Content)
	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, err
	}
	resp := dto.NewReplyResponse(reply)
	return &resp, nil
}

func (s *contentServiceImpl) DeleteReply(ctx context.Context, actor *models.User, id int64) error {
	reply, post, err := s.readableReply(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.authzService.ValidateContentOwnership(ctx, actor, reply.AuthorID, post.CommunityID); err != nil {
		return err
	}
	return s.replies.Delete(ctx, id)
}

func (s *contentServiceImpl) ToggleReplyLike(ctx context.Context, actor *models.User, id int64) (*dto.LikeResponse, error) {
	reply, _, err := s.readableReply(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.toggleLike(ctx, models.LikeReply, reply.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if liked {
		s.notifier.ReplyLiked(ctx, actor, reply)
	}
	return &dto.LikeResponse{Liked: liked, LikesCount: count}, nil
}
