package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/christiangarcia0311/stream-server/internal/app/auth"
	"github.com/christiangarcia0311/stream-server/internal/app/models"
	"github.com/christiangarcia0311/stream-server/internal/pkg/apperrors"
	"github.com/christiangarcia0311/stream-server/internal/pkg/auth"
	"github.com/christiangarcia0311/stream-server/internal/pkg/session"
	"github.com/christiangarcia0311/stream-server/internal/pkg/validation"
)

// memDB is an in-memory stand-in for PostgreSQL. WithinTransaction holds
// txMu for the whole callback, which serializes transactions the same way
// the community row lock does in production.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  int64

	users         map[int64]*models.User
	profiles      map[int64]*models.Profile
	follows       []*models.Follow
	communities   map[int64]*models.Community
	memberships   map[int64]*models.Membership
	posts         map[int64]*models.Post
	comments      map[int64]*models.Comment
	replies       map[int64]*models.Reply
	likes         map[models.LikeTarget]map[[2]int64]bool
	notifications []*models.Notification

	failNotifications  error
	failFollowerCounts error
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[int64]*models.User{},
		profiles:    map[int64]*models.Profile{},
		communities: map[int64]*models.Community{},
		memberships: map[int64]*models.Membership{},
		posts:       map[int64]*models.Post{},
		comments:    map[int64]*models.Comment{},
		replies:     map[int64]*models.Reply{},
		likes: map[models.LikeTarget]map[[2]int64]bool{
			models.LikePost:    {},
			models.LikeComment: {},
			models.LikeReply:   {},
		},
	}
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

func (db *memDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(ctx)
}

func notFoundErr(entity string) error {
	return apperrors.NewResourceNotFoundError(entity + " not found")
}

func (db *memDB) userCopy(id int64) *models.User {
	u, ok := db.users[id]
	if !ok {
		return nil
	}
	c := *u
	if p, ok := db.profiles[id]; ok {
		pc := *p
		c.Profile = &pc
	}
	return &c
}

// snapshot helpers used by assertions

func (db *memDB) notificationsFor(recipientID int64) []*models.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*models.Notification
	for _, n := range db.notifications {
		if n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}

func (db *memDB) notificationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.notifications)
}

func (db *memDB) membershipCount(communityID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, m := range db.memberships {
		if m.CommunityID == communityID {
			n++
		}
	}
	return n
}

func (db *memDB) memberCount(communityID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.communities[communityID].MemberCount
}

// users

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == user.Username {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Username is already taken")
		}
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Email is already registered")
		}
	}
	user.ID = s.db.nextID()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	c.Profile = nil
	s.db.users[user.ID] = &c
	return nil
}

func (s memUsers) CreateProfile(_ context.Context, profile *models.Profile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.profiles[profile.UserID]; ok {
		return apperrors.NewConflictError("Profile already exists")
	}
	profile.ID = s.db.nextID()
	c := *profile
	s.db.profiles[profile.UserID] = &c
	return nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u := s.db.userCopy(id); u != nil {
		return u, nil
	}
	return nil, notFoundErr("user")
}

func (s memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, u := range s.db.users {
		if u.Username == username {
			return s.db.userCopy(id), nil
		}
	}
	return nil, notFoundErr("user")
}

func (s memUsers) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, u := range s.db.users {
		if u.Username == identifier || u.Email == strings.ToLower(identifier) {
			return s.db.userCopy(id), nil
		}
	}
	return nil, notFoundErr("user")
}

func (s memUsers) GetProfile(_ context.Context, userID int64) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, notFoundErr("profile")
	}
	c := *p
	return &c, nil
}

func (s memUsers) UpdateProfile(_ context.Context, profile *models.Profile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.profiles[profile.UserID]; !ok {
		return notFoundErr("profile")
	}
	c := *profile
	s.db.profiles[profile.UserID] = &c
	return nil
}

func (s memUsers) UpdatePassword(_ context.Context, userID int64, hash string, changedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[userID]
	if !ok {
		return notFoundErr("user")
	}
	u.PasswordHash = hash
	if p, ok := s.db.profiles[userID]; ok {
		p.LastPasswordChange = &changedAt
	}
	return nil
}

func (s memUsers) ListActive(_ context.Context, excludeID int64) ([]*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.User
	for id, u := range s.db.users {
		if id != excludeID && u.IsActive && !u.IsSuperuser {
			out = append(out, s.db.userCopy(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// follows

type memFollows struct{ db *memDB }

func (s memFollows) Create(_ context.Context, followerID, followingID int64) (*models.Follow, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if followerID == followingID {
		return nil, apperrors.NewBadRequestError("You cannot follow yourself")
	}
	for _, f := range s.db.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return nil, apperrors.NewCustomError(apperrors.ErrAlreadyFollowing, "You are already following this user")
		}
	}
	f := &models.Follow{ID: s.db.nextID(), FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now()}
	s.db.follows = append(s.db.follows, f)
	return f, nil
}

func (s memFollows) Delete(_ context.Context, followerID, followingID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, f := range s.db.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			s.db.follows = append(s.db.follows[:i], s.db.follows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s memFollows) Exists(_ context.Context, followerID, followingID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, f := range s.db.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (s memFollows) CountFollowers(_ context.Context, userID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failFollowerCounts != nil {
		return 0, s.db.failFollowerCounts
	}
	n := 0
	for _, f := range s.db.follows {
		if f.FollowingID == userID {
			n++
		}
	}
	return n, nil
}

func (s memFollows) CountFollowing(_ context.Context, userID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, f := range s.db.follows {
		if f.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (s memFollows) ListFollowers(_ context.Context, userID int64) ([]*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.User
	for _, f := range s.db.follows {
		if f.FollowingID == userID {
			out = append(out, s.db.userCopy(f.FollowerID))
		}
	}
	return out, nil
}

func (s memFollows) ListFollowing(_ context.Context, userID int64) ([]*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.User
	for _, f := range s.db.follows {
		if f.FollowerID == userID {
			out = append(out, s.db.userCopy(f.FollowingID))
		}
	}
	return out, nil
}

func (s memFollows) FollowingIDs(_ context.Context, userID int64) ([]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []int64
	for _, f := range s.db.follows {
		if f.FollowerID == userID {
			out = append(out, f.FollowingID)
		}
	}
	return out, nil
}

func (s memFollows) FollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []int64
	for _, f := range s.db.follows {
		if f.FollowingID == userID {
			out = append(out, f.FollowerID)
		}
	}
	return out, nil
}

func (s memFollows) FollowerIDsInCommunity(_ context.Context, userID, communityID int64) ([]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []int64
	for _, f := range s.db.follows {
		if f.FollowingID != userID {
			continue
		}
		for _, m := range s.db.memberships {
			if m.CommunityID == communityID && m.UserID == f.FollowerID {
				out = append(out, f.FollowerID)
				break
			}
		}
	}
	return out, nil
}

// communities

type memCommunities struct{ db *memDB }

func (s memCommunities) Create(_ context.Context, community *models.Community) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.communities {
		if c.Name == community.Name {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "A community with this name already exists")
		}
	}
	community.ID = s.db.nextID()
	community.CreatedAt = time.Now()
	community.UpdatedAt = community.CreatedAt
	c := *community
	s.db.communities[community.ID] = &c
	return nil
}

func (s memCommunities) GetByID(_ context.Context, id int64) (*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.communities[id]
	if !ok {
		return nil, notFoundErr("community")
	}
	cc := *c
	return &cc, nil
}

func (s memCommunities) GetByIDForUpdate(ctx context.Context, id int64) (*models.Community, error) {
	return s.GetByID(ctx, id)
}

func (s memCommunities) ListActive(_ context.Context) ([]*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Community
	for _, c := range s.db.communities {
		if c.IsActive {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memCommunities) ListByMember(_ context.Context, userID int64) ([]*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Community
	for _, m := range s.db.memberships {
		if c := s.db.communities[m.CommunityID]; m.UserID == userID && c.IsActive {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memCommunities) Update(_ context.Context, community *models.Community) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.communities[community.ID]
	if !ok {
		return notFoundErr("community")
	}
	c.Name, c.Description, c.IsPrivate = community.Name, community.Description, community.IsPrivate
	return nil
}

func (s memCommunities) SetActive(_ context.Context, id int64, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.communities[id]
	if !ok {
		return notFoundErr("community")
	}
	c.IsActive = active
	return nil
}

func (s memCommunities) AdjustMemberCount(_ context.Context, id int64, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.communities[id]
	if !ok {
		return 0, notFoundErr("community")
	}
	c.MemberCount = max(c.MemberCount+delta, 0)
	return c.MemberCount, nil
}

// memberships

type memMemberships struct{ db *memDB }

func (s memMemberships) Create(_ context.Context, membership *models.Membership) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, m := range s.db.memberships {
		if m.UserID == membership.UserID && m.CommunityID == membership.CommunityID {
			return apperrors.NewCustomError(apperrors.ErrAlreadyMember, "You are already a member of this community")
		}
	}
	membership.ID = s.db.nextID()
	membership.JoinedAt = time.Now()
	c := *membership
	c.User = nil
	s.db.memberships[membership.ID] = &c
	return nil
}

func (s memMemberships) Get(_ context.Context, communityID, userID int64) (*models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, m := range s.db.memberships {
		if m.CommunityID == communityID && m.UserID == userID {
			c := *m
			return &c, nil
		}
	}
	return nil, notFoundErr("membership")
}

func (s memMemberships) GetByID(_ context.Context, id int64) (*models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.memberships[id]
	if !ok {
		return nil, notFoundErr("membership")
	}
	c := *m
	return &c, nil
}

func (s memMemberships) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.memberships[id]; !ok {
		return notFoundErr("membership")
	}
	delete(s.db.memberships, id)
	return nil
}

func (s memMemberships) UpdateRole(_ context.Context, id int64, role models.MembershipRole) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.memberships[id]
	if !ok {
		return notFoundErr("membership")
	}
	m.Role = role
	return nil
}

func (s memMemberships) CountByRole(_ context.Context, communityID int64, role models.MembershipRole) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, m := range s.db.memberships {
		if m.CommunityID == communityID && m.Role == role {
			n++
		}
	}
	return n, nil
}

func (s memMemberships) ListByCommunity(_ context.Context, communityID int64) ([]*models.Membership, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Membership
	for _, m := range s.db.memberships {
		if m.CommunityID == communityID {
			c := *m
			c.User = s.db.userCopy(m.UserID)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// content

func (db *memDB) likeCount(target models.LikeTarget, itemID int64) int {
	n := 0
	for k := range db.likes[target] {
		if k[0] == itemID {
			n++
		}
	}
	return n
}

func (db *memDB) decoratePost(p *models.Post, viewerID int64) *models.Post {
	c := *p
	c.LikesCount = db.likeCount(models.LikePost, p.ID)
	c.IsLiked = db.likes[models.LikePost][[2]int64{p.ID, viewerID}]
	c.CommentsCount = 0
	for _, cm := range db.comments {
		if cm.PostID == p.ID {
			c.CommentsCount++
		}
	}
	c.Author = db.userCopy(p.AuthorID)
	return &c
}

type memPosts struct{ db *memDB }

func (s memPosts) Create(_ context.Context, post *models.Post) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	post.ID = s.db.nextID()
	post.CreatedAt = time.Now().Add(time.Duration(post.ID) * time.Millisecond)
	post.UpdatedAt = post.CreatedAt
	c := *post
	c.Author = nil
	s.db.posts[post.ID] = &c
	return nil
}

func (s memPosts) GetByID(_ context.Context, id, viewerID int64) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.posts[id]
	if !ok {
		return nil, notFoundErr("post")
	}
	return s.db.decoratePost(p, viewerID), nil
}

func (s memPosts) List(_ context.Context, filter models.PostFilter, viewerID int64, offset, limit uint64) ([]*models.Post, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var matched []*models.Post
	for _, p := range s.db.posts {
		switch {
		case filter.CommunityID != nil:
			if p.CommunityID == nil || *p.CommunityID != *filter.CommunityID {
				continue
			}
		case filter.AuthorID == nil:
			if p.CommunityID != nil {
				continue
			}
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		matched = append(matched, s.db.decoratePost(p, viewerID))
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.CommunityID != nil && matched[i].IsPinned != matched[j].IsPinned {
			return matched[i].IsPinned
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= uint64(len(matched)) {
		return []*models.Post{}, total, nil
	}
	end := min(offset+limit, uint64(len(matched)))
	return matched[offset:end], total, nil
}

func (s memPosts) Update(_ context.Context, post *models.Post) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.posts[post.ID]
	if !ok {
		return notFoundErr("post")
	}
	p.Title, p.Content, p.ThreadType = post.Title, post.Content, post.ThreadType
	return nil
}

func (s memPosts) SetPinned(_ context.Context, id int64, pinned bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.posts[id]
	if !ok {
		return notFoundErr("post")
	}
	p.IsPinned = pinned
	return nil
}

func (s memPosts) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[id]; !ok {
		return notFoundErr("post")
	}
	for cid, c := range s.db.comments {
		if c.PostID == id {
			s.db.deleteCommentLocked(cid)
		}
	}
	delete(s.db.posts, id)
	s.db.dropLikesLocked(models.LikePost, id)
	for _, n := range s.db.notifications {
		if n.PostID != nil && *n.PostID == id {
			n.PostID = nil
		}
	}
	return nil
}

func (db *memDB) dropLikesLocked(target models.LikeTarget, itemID int64) {
	for k := range db.likes[target] {
		if k[0] == itemID {
			delete(db.likes[target], k)
		}
	}
}

func (db *memDB) deleteCommentLocked(id int64) {
	for rid, r := range db.replies {
		if r.CommentID == id {
			delete(db.replies, rid)
			db.dropLikesLocked(models.LikeReply, rid)
			for _, n := range db.notifications {
				if n.ReplyID != nil && *n.ReplyID == rid {
					n.ReplyID = nil
				}
			}
		}
	}
	delete(db.comments, id)
	db.dropLikesLocked(models.LikeComment, id)
	for _, n := range db.notifications {
		if n.CommentID != nil && *n.CommentID == id {
			n.CommentID = nil
		}
	}
}

type memComments struct{ db *memDB }

func (db *memDB) decorateComment(c *models.Comment, viewerID int64) *models.Comment {
	cc := *c
	cc.LikesCount = db.likeCount(models.LikeComment, c.ID)
	cc.IsLiked = db.likes[models.LikeComment][[2]int64{c.ID, viewerID}]
	cc.RepliesCount = 0
	for _, r := range db.replies {
		if r.CommentID == c.ID {
			cc.RepliesCount++
		}
	}
	cc.Author = db.userCopy(c.AuthorID)
	return &cc
}

func (s memComments) Create(_ context.Context, comment *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.posts[comment.PostID]; !ok {
		return errors.New("foreign key violation on comments.post_id")
	}
	comment.ID = s.db.nextID()
	comment.CreatedAt = time.Now()
	c := *comment
	c.Author = nil
	s.db.comments[comment.ID] = &c
	return nil
}

func (s memComments) GetByID(_ context.Context, id, viewerID int64) (*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.comments[id]
	if !ok {
		return nil, notFoundErr("comment")
	}
	return s.db.decorateComment(c, viewerID), nil
}

func (s memComments) ListByPost(_ context.Context, postID, viewerID int64) ([]*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Comment
	for _, c := range s.db.comments {
		if c.PostID == postID {
			out = append(out, s.db.decorateComment(c, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memComments) Update(_ context.Context, comment *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.comments[comment.ID]
	if !ok {
		return notFoundErr("comment")
	}
	c.Content = comment.Content
	return nil
}

func (s memComments) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.comments[id]; !ok {
		return notFoundErr("comment")
	}
	s.db.deleteCommentLocked(id)
	return nil
}

type memReplies struct{ db *memDB }

func (db *memDB) decorateReply(r *models.Reply, viewerID int64) *models.Reply {
	rc := *r
	rc.LikesCount = db.likeCount(models.LikeReply, r.ID)
	rc.IsLiked = db.likes[models.LikeReply][[2]int64{r.ID, viewerID}]
	rc.Author = db.userCopy(r.AuthorID)
	return &rc
}

func (s memReplies) Create(_ context.Context, reply *models.Reply) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.comments[reply.CommentID]; !ok {
		return errors.New("foreign key violation on replies.comment_id")
	}
	reply.ID = s.db.nextID()
	reply.CreatedAt = time.Now()
	c := *reply
	c.Author = nil
	s.db.replies[reply.ID] = &c
	return nil
}

func (s memReplies) GetByID(_ context.Context, id, viewerID int64) (*models.Reply, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.replies[id]
	if !ok {
		return nil, notFoundErr("reply")
	}
	return s.db.decorateReply(r, viewerID), nil
}

func (s memReplies) ListByComment(_ context.Context, commentID, viewerID int64) ([]*models.Reply, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*models.Reply
	for _, r := range s.db.replies {
		if r.CommentID == commentID {
			out = append(out, s.db.decorateReply(r, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memReplies) Update(_ context.Context, reply *models.Reply) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.replies[reply.ID]
	if !ok {
		return notFoundErr("reply")
	}
	r.Content = reply.Content
	return nil
}

func (s memReplies) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.replies[id]; !ok {
		return notFoundErr("reply")
	}
	delete(s.db.replies, id)
	s.db.dropLikesLocked(models.LikeReply, id)
	return nil
}

type memLikes struct{ db *memDB }

func (s memLikes) Toggle(_ context.Context, target models.LikeTarget, itemID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]int64{itemID, userID}
	if s.db.likes[target][key] {
		delete(s.db.likes[target], key)
		return false, nil
	}
	s.db.likes[target][key] = true
	return true, nil
}

func (s memLikes) Count(_ context.Context, target models.LikeTarget, itemID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.likeCount(target, itemID), nil
}

// notifications

type memNotifications struct{ db *memDB }

func (s memNotifications) Create(_ context.Context, n *models.Notification) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failNotifications != nil {
		return s.db.failNotifications
	}
	if n.RecipientID == n.SenderID {
		return errors.New("check violation chk_notifications_not_self")
	}
	n.ID = s.db.nextID()
	n.CreatedAt = time.Now()
	c := *n
	s.db.notifications = append(s.db.notifications, &c)
	return nil
}

func (s memNotifications) BulkCreate(_ context.Context, ns []*models.Notification) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failNotifications != nil {
		return 0, s.db.failNotifications
	}
	for _, n := range ns {
		c := *n
		c.ID = s.db.nextID()
		c.CreatedAt = time.Now()
		s.db.notifications = append(s.db.notifications, &c)
	}
	return int64(len(ns)), nil
}

func (s memNotifications) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool, offset, limit uint64) ([]*models.Notification, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var matched []*models.Notification
	for i := len(s.db.notifications) - 1; i >= 0; i-- {
		n := s.db.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		c.Sender = s.db.userCopy(n.SenderID)
		matched = append(matched, &c)
	}
	total := int64(len(matched))
	if offset >= uint64(len(matched)) {
		return []*models.Notification{}, total, nil
	}
	end := min(offset+limit, uint64(len(matched)))
	return matched[offset:end], total, nil
}

func (s memNotifications) CountUnread(_ context.Context, recipientID int64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, x := range s.db.notifications {
		if x.RecipientID == recipientID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (s memNotifications) MarkRead(_ context.Context, id, recipientID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, n := range s.db.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s memNotifications) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var updated int64
	for _, n := range s.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (s memNotifications) Delete(_ context.Context, id, recipientID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, n := range s.db.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			s.db.notifications = append(s.db.notifications[:i], s.db.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// testEnv wires every service against one memDB.
type testEnv struct {
	db          *memDB
	redis       *miniredis.Miniredis
	authz       *appauth.AuthorizationService
	notifier    NotificationService
	communities CommunityService
	content     ContentService
	users       UserService
	feed        FeedService
	auth        AuthService
	jwt         *auth.JWTService
	hasher      *auth.PasswordHasher
}

type envOption func(*envConfig)

type envConfig struct {
	policy  MembershipPolicy
	content validation.ContentPolicy
}

func withMembershipPolicy(p MembershipPolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{
		policy:  MembershipPolicy{GuardDemotion: true},
		content: validation.DefaultContentPolicy,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := newMemDB()
	logger := zerolog.Nop()
	mr := miniredis.RunT(t)
	sessions := session.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	hasher := &auth.PasswordHasher{Cost: bcrypt.MinCost}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "stream-server-test",
	})

	authz := appauth.NewAuthorizationService(memMemberships{db})
	notifier := NewNotificationService(memNotifications{db}, memFollows{db}, memUsers{db}, logger)

	return &testEnv{
		db:          db,
		redis:       mr,
		authz:       authz,
		notifier:    notifier,
		communities: NewCommunityService(db, memCommunities{db}, memMemberships{db}, authz, cfg.policy, logger),
		content: NewContentService(db, memPosts{db}, memComments{db}, memReplies{db}, memLikes{db},
			memCommunities{db}, authz, notifier, cfg.content, logger),
		users:  NewUserService(db, memUsers{db}, memFollows{db}, notifier, hasher, models.DefaultCooldowns, logger),
		feed:   NewFeedService(memNotifications{db}, logger),
		auth:   NewAuthService(db, memUsers{db}, sessions, jwtService, hasher, logger),
		jwt:    jwtService,
		hasher: hasher,
	}
}

// seedUser stores an active user with a profile and returns it loaded.
func (e *testEnv) seedUser(t *testing.T, username, first, last string) *models.User {
	t.Helper()
	ctx := context.Background()
	hash, err := e.hasher.Hash("password123")
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{Username: username, Email: username + "@example.edu", PasswordHash: hash, IsActive: true}
	if err := (memUsers{e.db}).Create(ctx, user); err != nil {
		t.Fatal(err)
	}
	if first != "" || last != "" {
		err := (memUsers{e.db}).CreateProfile(ctx, &models.Profile{
			UserID: user.ID, FirstName: first, LastName: last,
			BirthDate:  time.Date(2002, 1, 2, 0, 0, 0, 0, time.UTC),
			Gender:     models.GenderMale,
			Role:       models.AcademicRoleStudent,
			Department: "ccis",
			Course:     "bscs",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	loaded, _ := (memUsers{e.db}).GetByID(ctx, user.ID)
	return loaded
}

func (e *testEnv) seedStaff(t *testing.T, username, first, last string) *models.User {
	t.Helper()
	u := e.seedUser(t, username, first, last)
	e.db.mu.Lock()
	e.db.users[u.ID].IsStaff = true
	e.db.mu.Unlock()
	u.IsStaff = true
	return u
}

func (e *testEnv) follow(t *testing.T, follower, following *models.User) {
	t.Helper()
	if _, err := (memFollows{e.db}).Create(context.Background(), follower.ID, following.ID); err != nil {
		t.Fatal(err)
	}
}

func ptr[T any](v T) *T { return &v }
