package models

import "time"

// ThreadType classifies a post.
type ThreadType string

const (
	ThreadGeneral        ThreadType = "general"
	ThreadDiscussion     ThreadType = "discussion"
	ThreadQuestion       ThreadType = "question"
	ThreadGuide          ThreadType = "guide"
	ThreadAnnouncement   ThreadType = "announcement"
	ThreadAccomplishment ThreadType = "accomplishment"
)

// Valid reports whether t is a known thread type.
func (t ThreadType) Valid() bool {
	switch t {
	case ThreadGeneral, ThreadDiscussion, ThreadQuestion, ThreadGuide, ThreadAnnouncement, ThreadAccomplishment:
		return true
	}
	return false
}

// Post is a thread. CommunityID is nil for an open thread.
type Post struct {
	ID          int64      `json:"id" db:"id"`
	AuthorID    int64      `json:"authorId" db:"author_id"`
	CommunityID *int64     `json:"communityId,omitempty" db:"community_id"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"content" db:"content"`
	ThreadType  ThreadType `json:"threadType" db:"thread_type"`
	IsPinned    bool       `json:"isPinned" db:"is_pinned"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`

	LikesCount    int  `json:"likesCount" db:"-"`
	CommentsCount int  `json:"commentsCount" db:"-"`
	IsLiked       bool `json:"isLiked" db:"-"`

	Author *User `json:"author,omitempty"`
}

// Comment belongs to a post.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"postId" db:"post_id"`
	AuthorID  int64     `json:"authorId" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	LikesCount   int  `json:"likesCount" db:"-"`
	RepliesCount int  `json:"repliesCount" db:"-"`
	IsLiked      bool `json:"isLiked" db:"-"`

	Author *User `json:"author,omitempty"`
}

// Reply belongs to a comment.
type Reply struct {
	ID        int64     `json:"id" db:"id"`
	CommentID int64     `json:"commentId" db:"comment_id"`
	AuthorID  int64     `json:"authorId" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	LikesCount int  `json:"likesCount" db:"-"`
	IsLiked    bool `json:"isLiked" db:"-"`

	Author *User `json:"author,omitempty"`
}

// LikeTarget names the kind of item a like points at.
type LikeTarget string

const (
	LikePost    LikeTarget = "post"
	LikeComment LikeTarget = "comment"
	LikeReply   LikeTarget = "reply"
)

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// PostFilter selects a listing. With neither field set it matches open threads.
type PostFilter struct {
	CommunityID *int64
	AuthorID    *int64
}
