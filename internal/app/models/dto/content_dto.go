package dto

import (
	"time"

	"github.com/christiangarcia0311/stream-server/internal/app/models"
)

// CreatePostRequest creates an open thread, or a community post when CommunityID is set.
type CreatePostRequest struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	ThreadType  string `json:"threadType" binding:"omitempty,oneof=general discussion question guide announcement accomplishment"`
	CommunityID *int64 `json:"communityId" binding:"omitempty,gt=0"`
}

// UpdatePostRequest is a partial update; nil fields are left alone.
type UpdatePostRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	ThreadType *string `json:"threadType" binding:"omitempty,oneof=general discussion question guide announcement accomplishment"`
}

// PinPostRequest pins or unpins a community post.
type PinPostRequest struct {
	Pinned bool `json:"pinned"`
}

// PostResponse is a post with counters for the viewer.
type PostResponse struct {
	ID            int64       `json:"id"`
	Author        UserSummary `json:"author"`
	CommunityID   *int64      `json:"communityId,omitempty"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	ThreadType    string      `json:"threadType"`
	IsPinned      bool        `json:"isPinned"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	IsLiked       bool        `json:"isLiked"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// NewPostResponse maps a post.
func NewPostResponse(p *models.Post) PostResponse {
	author := NewUserSummary(p.Author)
	if p.Author == nil {
		author.ID = p.AuthorID
	}
	return PostResponse{
		ID:            p.ID,
		Author:        author,
		CommunityID:   p.CommunityID,
		Title:         p.Title,
		Content:       p.Content,
		ThreadType:    string(p.ThreadType),
		IsPinned:      p.IsPinned,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		IsLiked:       p.IsLiked,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PostListResponse is a page of posts.
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}

// ContentRequest carries the body of a comment or reply.
type ContentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CommentResponse is a comment with counters for the viewer.
type CommentResponse struct {
	ID           int64       `json:"id"`
	PostID       int64       `json:"postId"`
	Author       UserSummary `json:"author"`
	Content      string      `json:"content"`
	LikesCount   int         `json:"likesCount"`
	RepliesCount int         `json:"repliesCount"`
	IsLiked      bool        `json:"isLiked"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *models.Comment) CommentResponse {
	author := NewUserSummary(c.Author)
	if c.Author == nil {
		author.ID = c.AuthorID
	}
	return CommentResponse{
		ID:           c.ID,
		PostID:       c.PostID,
		Author:       author,
		Content:      c.Content,
		LikesCount:   c.LikesCount,
		RepliesCount: c.RepliesCount,
		IsLiked:      c.IsLiked,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ReplyResponse is a reply with counters for the viewer.
type ReplyResponse struct {
	ID         int64       `json:"id"`
	CommentID  int64       `json:"commentId"`
	Author     UserSummary `json:"author"`
	Content    string      `json:"content"`
	LikesCount int         `json:"likesCount"`
	IsLiked    bool        `json:"isLiked"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// NewReplyResponse maps a reply.
func NewReplyResponse(r *models.Reply) ReplyResponse {
	author := NewUserSummary(r.Author)
	if r.Author == nil {
		author.ID = r.AuthorID
	}
	return ReplyResponse{
		ID:         r.ID,
		CommentID:  r.CommentID,
		Author:     author,
		Content:    r.Content,
		LikesCount: r.LikesCount,
		IsLiked:    r.IsLiked,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// LikeResponse is the outcome of a like toggle.
type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}
