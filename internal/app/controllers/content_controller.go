package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/app/services"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
)

// ContentController handles posts, comments, replies and likes
type ContentController struct {
	contentService services.ContentService
}

// NewContentController creates a new ContentController
func NewContentController(contentService services.ContentService) *ContentController {
	return &ContentController{contentService: contentService}
}

// CreatePost handles post creation
// @Summary Create a post
// @Description Community posts require membership in the community.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 403 {object} dto.APIResponse "Not a community member"
// @Router /posts [post]
func (c *ContentController) CreatePost(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.contentService.CreatePost(ctx.Request.Context(), user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post, "Post created"))
}

// GetPosts lists posts that belong to no community
// @Summary List posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Router /posts [get]
func (c *ContentController) GetPosts(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	posts, err := c.contentService.ListPosts(ctx.Request.Context(), user, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

func (c *ContentController) GetMyPosts(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	posts, err := c.contentService.ListMyPosts(ctx.Request.Context(), user, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

// GetCommunityPosts lists a community's posts, pinned first.
func (c *ContentController) GetCommunityPosts(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	communityID, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	posts, err := c.contentService.ListCommunityPosts(ctx.Request.Context(), user, communityID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(posts))
}

// GetPostByID handles retrieving a post
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Router /posts/{id} [get]
func (c *ContentController) GetPostByID(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	post, err := c.contentService.GetPost(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// UpdatePost applies a partial update
// @Summary Update a post
// @Description The author, a community moderator or admin, or a superuser.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.UpdatePostRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 403 {object} dto.APIResponse "Not allowed"
// @Router /posts/{id} [patch]
func (c *ContentController) UpdatePost(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	var req dto.UpdatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.contentService.UpdatePost(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post, "Post updated"))
}

func (c *ContentController) DeletePost(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	if err := c.contentService.DeletePost(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Post deleted"))
}

// PinPost pins or unpins a community announcement.
func (c *ContentController) PinPost(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	var req dto.PinPostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.contentService.PinPost(ctx.Request.Context(), user, id, req.Pinned)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// TogglePostLike likes the post, or removes the like if present
// @Summary Toggle post like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.LikeResponse}
// @Router /posts/{id}/like [post]
func (c *ContentController) TogglePostLike(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	resp, err := c.contentService.TogglePostLike(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// CreateComment adds a comment to a post
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.ContentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse}
// @Router /posts/{id}/comments [post]
func (c *ContentController) CreateComment(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	postID, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.contentService.CreateComment(ctx.Request.Context(), user, postID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment, "Comment created"))
}

func (c *ContentController) GetComments(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	postID, ok := idParam(ctx, "id", "post")
	if !ok {
		return
	}
	comments, err := c.contentService.ListComments(ctx.Request.Context(), user, postID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comments))
}

func (c *ContentController) UpdateComment(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "comment")
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.contentService.UpdateComment(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comment, "Comment updated"))
}

func (c *ContentController) DeleteComment(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "comment")
	if !ok {
		return
	}
	if err := c.contentService.DeleteComment(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Comment deleted"))
}

func (c *ContentController) ToggleCommentLike(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "comment")
	if !ok {
		return
	}
	resp, err := c.contentService.ToggleCommentLike(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// CreateReply adds a reply to a comment
// @Summary Reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body dto.ContentRequest true "Reply"
// @Success 201 {object} dto.APIResponse{data=dto.ReplyResponse}
// @Router /comments/{id}/replies [post]
func (c *ContentController) CreateReply(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	commentID, ok := idParam(ctx, "id", "comment")
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reply, err := c.contentService.CreateReply(ctx.Request.Context(), user, commentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(reply, "Reply created"))
}

func (c *ContentController) GetReplies(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	commentID, ok := idParam(ctx, "id", "comment")
	if !ok {
		return
	}
	replies, err := c.contentService.ListReplies(ctx.Request.Context(), user, commentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(replies))
}

func (c *ContentController) UpdateReply(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "reply")
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reply, err := c.contentService.UpdateReply(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reply, "Reply updated"))
}

func (c *ContentController) DeleteReply(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "reply")
	if !ok {
		return
	}
	if err := c.contentService.DeleteReply(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Reply deleted"))
}

func (c *ContentController) ToggleReplyLike(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "reply")
	if !ok {
		return
	}
	resp, err := c.contentService.ToggleReplyLike(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
