// Package testutil creates courses, users and activities for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

var sequence atomic.Int64

func next() int64 {
	return sequence.Add(1)
}

// Generator writes fixtures straight to the database.
type Generator struct {
	t  *testing.T
	db *gorm.DB
}

// NewGenerator binds a generator to a database.
func NewGenerator(t *testing.T, db *gorm.DB) *Generator {
	return &Generator{t: t, db: db}
}

// DB returns the underlying database.
func (g *Generator) DB() *gorm.DB {
	return g.db
}

// CreateCourse creates an empty course.
func (g *Generator) CreateCourse() models.Course {
	g.t.Helper()
	n := next()
	course := models.Course{FullName: fmt.Sprintf("Course %d", n), ShortName: fmt.Sprintf("C%d", n)}
	require.NoError(g.t, g.db.Create(&course).Error)
	return course
}

// UserOption customises CreateUser.
type UserOption func(*models.User)

// WithTrackForums sets the personal forum tracking preference.
func WithTrackForums(track bool) UserOption {
	return func(u *models.User) {
		u.TrackForums = track
	}
}

// WithMailDigest sets the personal mail digest preference.
func WithMailDigest(digest models.MailDigest) UserOption {
	return func(u *models.User) {
		u.MailDigest = digest
	}
}

// CreateUser creates a user that tracks forums by default.
func (g *Generator) CreateUser(opts ...UserOption) models.User {
	g.t.Helper()
	n := next()
	user := models.User{
		Username:    fmt.Sprintf("user%d", n),
		FirstName:   "User",
		LastName:    fmt.Sprintf("%d", n),
		Email:       fmt.Sprintf("user%d@example.com", n),
		TrackForums: true,
	}
	for _, opt := range opts {
		opt(&user)
	}
	require.NoError(g.t, g.db.Create(&user).Error)
	return user
}

// Enrol enrols a user with the given role.
func (g *Generator) Enrol(course models.Course, user models.User, role string) models.Enrolment {
	g.t.Helper()
	enrolment := models.Enrolment{CourseID: course.ID, UserID: user.ID, Role: role}
	require.NoError(g.t, g.db.Create(&enrolment).Error)
	return enrolment
}

// CreateAndEnrol creates a user and enrols them.
func (g *Generator) CreateAndEnrol(course models.Course, role string, opts ...UserOption) models.User {
	g.t.Helper()
	user := g.CreateUser(opts...)
	g.Enrol(course, user, role)
	return user
}

// ForumOption customises CreateForum.
type ForumOption func(*models.Forum)

// WithForumType sets the forum subtype.
func WithForumType(forumType string) ForumOption {
	return func(f *models.Forum) {
		f.Type = forumType
	}
}

// WithTrackingType sets the forum tracking mode.
func WithTrackingType(mode models.TrackingMode) ForumOption {
	return func(f *models.Forum) {
		f.TrackingType = mode
	}
}

// WithForceSubscribe sets the forum subscription mode.
func WithForceSubscribe(mode models.SubscriptionMode) ForumOption {
	return func(f *models.Forum) {
		f.ForceSubscribe = mode
	}
}

// WithDueDate sets the forum due date.
func WithDueDate(due time.Time) ForumOption {
	return func(f *models.Forum) {
		f.DueDate = due.Unix()
	}
}

// CreateForum creates a general, optionally tracked forum and its course module.
func (g *Generator) CreateForum(course models.Course, opts ...ForumOption) (models.Forum, models.CourseModule) {
	g.t.Helper()
	forum := models.Forum{
		CourseID:       course.ID,
		Name:           fmt.Sprintf("Forum %d", next()),
		Type:           models.ForumTypeGeneral,
		TrackingType:   models.TrackingOptional,
		ForceSubscribe: models.SubscriptionChoose,
	}
	for _, opt := range opts {
		opt(&forum)
	}
	require.NoError(g.t, g.db.Create(&forum).Error)

	return forum, g.createModule(course, models.ModuleForum, forum.ID)
}

// CreateH5PActivity creates a tracked H5P activity and its course module.
func (g *Generator) CreateH5PActivity(course models.Course, packageRef string) (models.H5PActivity, models.CourseModule) {
	g.t.Helper()
	activity := models.H5PActivity{
		CourseID:       course.ID,
		Name:           fmt.Sprintf("H5P %d", next()),
		EnableTracking: true,
		PackageRef:     packageRef,
	}
	require.NoError(g.t, g.db.Create(&activity).Error)

	return activity, g.createModule(course, models.ModuleH5PActivity, activity.ID)
}

func (g *Generator) createModule(course models.Course, moduleType string, instanceID uint) models.CourseModule {
	g.t.Helper()
	var position int64
	require.NoError(g.t, g.db.Model(&models.CourseModule{}).Where("course_id = ?", course.ID).Count(&position).Error)

	cm := models.CourseModule{
		CourseID:   course.ID,
		ModuleType: moduleType,
		InstanceID: instanceID,
		Position:   int(position),
		Visible:    true,
	}
	require.NoError(g.t, g.db.Create(&cm).Error)
	return cm
}

// CreateDiscussion posts a new discussion (and its first post) as author.
func (g *Generator) CreateDiscussion(forum models.Forum, author models.User) (models.ForumDiscussion, models.ForumPost) {
	g.t.Helper()
	now := time.Now()
	n := next()
	discussion := models.ForumDiscussion{
		ForumID:  forum.ID,
		CourseID: forum.CourseID,
		Name:     fmt.Sprintf("Discussion %d", n),
		UserID:   author.ID,
	}
	require.NoError(g.t, g.db.Create(&discussion).Error)

	post := models.ForumPost{
		DiscussionID: discussion.ID,
		ForumID:      forum.ID,
		UserID:       author.ID,
		Subject:      discussion.Name,
		Message:      fmt.Sprintf("Message %d", n),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(g.t, g.db.Create(&post).Error)
	require.NoError(g.t, g.db.Model(&discussion).UpdateColumn("first_post", post.ID).Error)
	discussion.FirstPost = post.ID

	return discussion, post
}

// CreateAttempt records an H5P attempt for user.
func (g *Generator) CreateAttempt(activity models.H5PActivity, user models.User) models.H5PAttempt {
	g.t.Helper()
	var count int64
	require.NoError(g.t, g.db.Model(&models.H5PAttempt{}).
		Where("activity_id = ? AND user_id = ?", activity.ID, user.ID).
		Count(&count).Error)

	attempt := models.H5PAttempt{
		ActivityID: activity.ID,
		UserID:     user.ID,
		Attempt:    int(count) + 1,
		RawScore:   1,
		MaxScore:   2,
	}
	require.NoError(g.t, g.db.Create(&attempt).Error)
	return attempt
}
