package models

import (
	"time"

	"gorm.io/datatypes"
)

// H5PActivity is an activity delivering an H5P package.
type H5PActivity struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CourseID       uint      `gorm:"not null;index" json:"course_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	EnableTracking bool      `gorm:"not null" json:"enable_tracking"`
	PackageRef     string    `gorm:"size:512" json:"package_ref"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// H5PAttempt is one tracked attempt of a user on an H5P activity.
type H5PAttempt struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActivityID uint              `gorm:"not null;index" json:"activity_id"`
	UserID     uint              `gorm:"not null;index" json:"user_id"`
	Attempt    int               `gorm:"not null" json:"attempt"`
	RawScore   int               `json:"raw_score"`
	MaxScore   int               `json:"max_score"`
	Completion *bool             `json:"completion"`
	Success    *bool             `json:"success"`
	Result     datatypes.JSONMap `gorm:"type:json" json:"result"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AllModels lists every model managed by this service, for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&Course{},
		&User{},
		&Enrolment{},
		&CourseModule{},
		&Forum{},
		&ForumDiscussion{},
		&ForumPost{},
		&ForumRead{},
		&ForumTrackPref{},
		&ForumSubscription{},
		&ForumDigest{},
		&H5PActivity{},
		&H5PAttempt{},
	}
}

// TableName pins the table name; the default naming splits the H5P acronym.
func (H5PActivity) TableName() string { return "h5p_activities" }

// TableName pins the table name; the default naming splits the H5P acronym.
func (H5PAttempt) TableName() string { return "h5p_attempts" }
