package models

import "time"

// Forum subtypes.
const (
	ForumTypeGeneral  = "general"
	ForumTypeSingle   = "single"
	ForumTypeEachUser = "eachuser"
	ForumTypeQandA    = "qanda"
	ForumTypeBlog     = "blog"
	ForumTypeNews     = "news"
)

// TrackingMode controls whether per-user read tracking is honoured for a forum.
type TrackingMode int

const (
	TrackingOff      TrackingMode = 0
	TrackingOptional TrackingMode = 1
	TrackingForced   TrackingMode = 2
)

func (m TrackingMode) String() string {
	switch m {
	case TrackingOff:
		return "off"
	case TrackingOptional:
		return "optional"
	case TrackingForced:
		return "forced"
	default:
		return "unknown"
	}
}

// SubscriptionMode controls whether users may choose to receive forum emails.
type SubscriptionMode int

const (
	SubscriptionChoose   SubscriptionMode = 0
	SubscriptionForced   SubscriptionMode = 1
	SubscriptionInitial  SubscriptionMode = 2
	SubscriptionDisallow SubscriptionMode = 3
)

func (m SubscriptionMode) String() string {
	switch m {
	case SubscriptionChoose:
		return "choose"
	case SubscriptionForced:
		return "forced"
	case SubscriptionInitial:
		return "initial"
	case SubscriptionDisallow:
		return "disallow"
	default:
		return "unknown"
	}
}

// Forum is a discussion forum activity instance.
type Forum struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	CourseID       uint             `gorm:"not null;index" json:"course_id"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	Type           string           `gorm:"size:20;not null;default:general" json:"type"`
	TrackingType   TrackingMode     `gorm:"not null" json:"tracking_type"`
	ForceSubscribe SubscriptionMode `gorm:"not null;default:0" json:"force_subscribe"`
	DueDate        int64            `gorm:"not null;default:0" json:"due_date"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ForumDiscussion is a thread inside a forum.
type ForumDiscussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"not null;index" json:"forum_id"`
	CourseID  uint      `gorm:"not null" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	FirstPost uint      `json:"first_post"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ForumPost is a single message in a discussion. ForumID is denormalised for counting.
type ForumPost struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	ForumID      uint      `gorm:"not null;index" json:"forum_id"`
	ParentID     uint      `gorm:"not null;default:0" json:"parent_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Subject      string    `gorm:"size:255" json:"subject"`
	Message      string    `gorm:"type:text" json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
}

// ForumRead records that a user has read a post.
type ForumRead struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_forum_read_user_post" json:"user_id"`
	PostID       uint      `gorm:"not null;uniqueIndex:idx_forum_read_user_post" json:"post_id"`
	ForumID      uint      `gorm:"not null;index" json:"forum_id"`
	DiscussionID uint      `gorm:"not null" json:"discussion_id"`
	FirstRead    time.Time `json:"first_read"`
	LastRead     time.Time `json:"last_read"`
}

// ForumTrackPref marks a forum the user opted out of tracking.
type ForumTrackPref struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_forum_track_user_forum" json:"user_id"`
	ForumID uint `gorm:"not null;uniqueIndex:idx_forum_track_user_forum" json:"forum_id"`
}

// ForumSubscription stores an explicit subscription choice. Absence means the mode default applies.
type ForumSubscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_forum_sub_user_forum" json:"user_id"`
	ForumID    uint      `gorm:"not null;uniqueIndex:idx_forum_sub_user_forum" json:"forum_id"`
	Subscribed bool      `gorm:"not null" json:"subscribed"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ForumDigest overrides the user's mail digest for one forum.
type ForumDigest struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_forum_digest_user_forum" json:"user_id"`
	ForumID    uint       `gorm:"not null;uniqueIndex:idx_forum_digest_user_forum" json:"forum_id"`
	MailDigest MailDigest `gorm:"not null" json:"mail_digest"`
}
