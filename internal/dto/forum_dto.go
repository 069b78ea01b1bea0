package dto

import (
	"time"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// CreateDiscussionRequest starts a new discussion in a forum.
type CreateDiscussionRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=255"`
	Message string `json:"message" validate:"required,min=1,max=20000"`
}

// CreateReplyRequest adds a post to an existing discussion.
type CreateReplyRequest struct {
	Subject  string `json:"subject" validate:"omitempty,max=255"`
	Message  string `json:"message" validate:"required,min=1,max=20000"`
	ParentID uint   `json:"parent_id" validate:"omitempty,gt=0"`
}

// PostResponse is the serialized representation of a forum post.
type PostResponse struct {
	ID           uint      `json:"id"`
	DiscussionID uint      `json:"discussion_id"`
	ForumID      uint      `json:"forum_id"`
	ParentID     uint      `json:"parent_id"`
	UserID       uint      `json:"user_id"`
	Subject      string    `json:"subject"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewPostResponse converts a model into a DTO.
func NewPostResponse(post models.ForumPost) PostResponse {
	return PostResponse{
		ID:           post.ID,
		DiscussionID: post.DiscussionID,
		ForumID:      post.ForumID,
		ParentID:     post.ParentID,
		UserID:       post.UserID,
		Subject:      post.Subject,
		Message:      post.Message,
		CreatedAt:    post.CreatedAt,
	}
}

// ToggleRequest switches a per-forum preference on or off.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ToggleResponse reports the state of a per-forum preference after a change.
type ToggleResponse struct {
	ForumID uint `json:"forum_id"`
	Enabled bool `json:"enabled"`
}

// DigestRequest sets the per-forum digest; -1 falls back to the user preference.
type DigestRequest struct {
	MailDigest *int `json:"mail_digest" validate:"required,min=-1,max=2"`
}

// DigestResponse reports the stored per-forum digest.
type DigestResponse struct {
	ForumID    uint `json:"forum_id"`
	MailDigest int  `json:"mail_digest"`
}

// MarkReadResponse reports how many posts were marked as read.
type MarkReadResponse struct {
	ForumID uint  `json:"forum_id"`
	Marked  int64 `json:"marked"`
}
