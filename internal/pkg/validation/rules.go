package validation

import (
	"fmt"
	"regexp"

	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/helpers"
)

var (
	// UsernamePattern mirrors the handle rules of the account system.
	UsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.+\-@]{3,150}$`)

	PasswordMinLength = 8

	NameMinLength = 1
	NameMaxLength = 100

	// TitleMaxLength matches the posts.title column.
	TitleMaxLength = 255
)

// ContentPolicy holds the minimum lengths for user-written text. Lengths are
// counted in runes after trimming surrounding whitespace.
type ContentPolicy struct {
	PostMinTitleLen   int
	PostMinContentLen int
	CommentMinLen     int
	ReplyMinLen       int
}

// DefaultContentPolicy is the stock policy: ten-character titles and
// twenty-character bodies.
var DefaultContentPolicy = ContentPolicy{
	PostMinTitleLen:   10,
	PostMinContentLen: 20,
	CommentMinLen:     1,
	ReplyMinLen:       1,
}

// Post validates a post title and body.
func (p ContentPolicy) Post(title, content string) error {
	if n := helpers.TrimmedLen(title); n < p.PostMinTitleLen {
		return apperrors.NewValidationError("title", fmt.Sprintf("Title must be at least %d characters long", p.PostMinTitleLen))
	} else if n > TitleMaxLength {
		return apperrors.NewValidationError("title", fmt.Sprintf("Title must be at most %d characters long", TitleMaxLength))
	}
	if helpers.TrimmedLen(content) < p.PostMinContentLen {
		return apperrors.NewValidationError("content", fmt.Sprintf("Content must be at least %d characters long", p.PostMinContentLen))
	}
	return nil
}

// Comment validates a comment body.
func (p ContentPolicy) Comment(content string) error {
	return minLen("content", content, max(p.CommentMinLen, 1), "Comment")
}

// Reply validates a reply body.
func (p ContentPolicy) Reply(content string) error {
	return minLen("content", content, max(p.ReplyMinLen, 1), "Reply")
}

func minLen(field, value string, n int, what string) error {
	if helpers.TrimmedLen(value) < n {
		if n == 1 {
			return apperrors.NewValidationError(field, what+" cannot be empty")
		}
		return apperrors.NewValidationError(field, fmt.Sprintf("%s must be at least %d characters long", what, n))
	}
	return nil
}

// Username validates an account handle.
func Username(username string) error {
	if !UsernamePattern.MatchString(username) {
		return apperrors.NewValidationError("username", "Username must be 3-150 characters of letters, digits and @.+-_")
	}
	return nil
}

// Password validates a new password.
func Password(password string) error {
	if len([]rune(password)) < PasswordMinLength {
		return apperrors.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength))
	}
	return nil
}

// Name validates a first or last name.
func Name(field, value string) error {
	n := helpers.TrimmedLen(value)
	if n < NameMinLength || n > NameMaxLength {
		return apperrors.NewValidationError(field, fmt.Sprintf("%s must be between %d and %d characters", field, NameMinLength, NameMaxLength))
	}
	return nil
}
