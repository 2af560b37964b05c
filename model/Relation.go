package model

import "time"

// Like records that an account liked a post
type Like struct {
	PostID    string    `json:"post_id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed edge, the follower's feed includes the followee's posts
type Follow struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// SetBody define the struct of the body
// sent to relation routes
type SetBody struct {
	ID string `json:"id"`
}

// FollowResult is returned by a follow toggle
type FollowResult struct {
	Following bool   `json:"followed"`
	Message   string `json:"message"`
}

// LikeResult is returned by a like toggle
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
