package models

import "time"

// Follow is a directed edge from Follower to Following.
type Follow struct {
	ID          int64     `json:"id" db:"id"`
	FollowerID  int64     `json:"followerId" db:"follower_id"`
	FollowingID int64     `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
