package models

import (
	"strings"
	"time"
)

// Course groups activities and enrolments.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	ShortName string    `gorm:"size:100;uniqueIndex" json:"short_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MailDigest is the user level (or per-forum) email digest preference.
type MailDigest int

const (
	// MailDigestDefault only applies to per-forum preferences and defers to the user setting.
	MailDigestDefault  MailDigest = -1
	MailDigestOff      MailDigest = 0
	MailDigestComplete MailDigest = 1
	MailDigestSubjects MailDigest = 2
)

// Valid reports whether the digest value is a known option.
func (d MailDigest) Valid() bool {
	return d >= MailDigestDefault && d <= MailDigestSubjects
}

// User is a site account. TrackForums and MailDigest are personal preferences.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	Email       string     `gorm:"size:255" json:"email"`
	TrackForums bool       `gorm:"not null;default:false" json:"track_forums"`
	MailDigest  MailDigest `gorm:"not null;default:0" json:"mail_digest"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Enrolment role names as stored on Enrolment.Role.
const (
	EnrolmentRoleStudent        = "student"
	EnrolmentRoleTeacher        = "teacher"
	EnrolmentRoleEditingTeacher = "editingteacher"
	EnrolmentRoleManager        = "manager"
)

// Enrolment links a user to a course with a role.
type Enrolment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrolment_course_user" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrolment_course_user" json:"user_id"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizedRole returns the lower-cased trimmed role name.
func (e Enrolment) NormalizedRole() string {
	return strings.ToLower(strings.TrimSpace(e.Role))
}

// Module types supported by course modules.
const (
	ModuleForum       = "forum"
	ModuleH5PActivity = "h5pactivity"
)

// CourseModule places an activity instance of a given module type in a course.
type CourseModule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	ModuleType string    `gorm:"size:32;not null;index" json:"module_type"`
	InstanceID uint      `gorm:"not null" json:"instance_id"`
	Section    int       `gorm:"not null;default:0" json:"section"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Visible    bool      `gorm:"not null" json:"visible"`
	CreatedAt  time.Time `json:"created_at"`
}
