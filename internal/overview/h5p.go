package overview

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/lang"
	"github.com/noah-isme/gema-overview-api/internal/models"
)

// H5P item keys.
const (
	KeyH5PActions     = "actions"
	KeyH5PType        = "h5ptype"
	KeyTotalAttempts  = "totalattempts"
	KeyMyAttempts     = "myattempts"
	KeyAttempted      = "attempted"
	h5pReportURLTmpl  = "/h5pactivity/%d/report"
	h5pAttemptedRoles = models.EnrolmentRoleStudent
)

// H5PStore is the read side of H5P persistence used by the H5P overview.
type H5PStore interface {
	GetActivity(ctx context.Context, id uint) (models.H5PActivity, error)
	CountAttempts(ctx context.Context, activityID uint) (int64, error)
	CountUserAttempts(ctx context.Context, activityID, userID uint) (int64, error)
	CountAttemptedUsers(ctx context.Context, activityID, courseID uint, roles ...string) (int64, error)
}

// EnrolmentCounter counts course participants by enrolment role.
type EnrolmentCounter interface {
	CountEnrolled(ctx context.Context, courseID uint, roles ...string) (int64, error)
}

// PackageTyper resolves the content type title of an activity's deployed package.
type PackageTyper interface {
	ContentType(ctx context.Context, activity models.H5PActivity) (string, error)
}

// H5PDeps wires an H5P overview.
type H5PDeps struct {
	Store    H5PStore
	Enrolled EnrolmentCounter
	Packages PackageTyper
	Logger   zerolog.Logger
}

// NewH5PBuilder returns the factory builder for H5P activity course modules.
func NewH5PBuilder(deps H5PDeps) Builder {
	return func(ctx context.Context, cm models.CourseModule, viewer Viewer) (Provider, error) {
		activity, err := deps.Store.GetActivity(ctx, cm.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("load h5p activity %d: %w", cm.InstanceID, err)
		}
		return NewH5POverview(cm, activity, viewer, deps), nil
	}
}

// H5POverview computes the overview items of an H5P activity.
type H5POverview struct {
	cm       models.CourseModule
	activity models.H5PActivity
	viewer   Viewer
	deps     H5PDeps
	logger   zerolog.Logger
}

// NewH5POverview builds the overview of activity for viewer.
func NewH5POverview(cm models.CourseModule, activity models.H5PActivity, viewer Viewer, deps H5PDeps) *H5POverview {
	return &H5POverview{
		cm:       cm,
		activity: activity,
		viewer:   viewer,
		deps:     deps,
		logger:   deps.Logger.With().Str("component", "h5p_overview").Uint("activity_id", activity.ID).Logger(),
	}
}

func (o *H5POverview) ModuleType() string {
	return models.ModuleH5PActivity
}

// DueDate is never reported; H5P activities have no due date.
func (o *H5POverview) DueDate(context.Context) (*Item, error) {
	return nil, nil
}

// Actions links teachers to the attempts report.
func (o *H5POverview) Actions(ctx context.Context) (*Item, error) {
	if o.viewer.Role != RoleTeacher {
		return nil, nil
	}

	total, err := o.deps.Store.CountAttempts(ctx, o.activity.ID)
	if err != nil {
		return nil, err
	}

	content, err := renderAction(fmt.Sprintf(h5pReportURLTmpl, o.activity.ID), lang.Get(lang.ViewResults))
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:     KeyH5PActions,
		Name:    lang.Get(lang.Actions),
		Value:   total,
		Content: content,
	}, nil
}

// ExtraItems returns the content type and attempt statistics visible to the viewer.
func (o *H5POverview) ExtraItems(ctx context.Context) (*ItemSet, error) {
	set := NewItemSet()

	steps := []func(context.Context) (*Item, error){
		o.H5PType,
		o.TotalAttempts,
		o.MyAttempts,
		o.Attempted,
	}
	for _, step := range steps {
		item, err := step(ctx)
		if err != nil {
			return nil, err
		}
		set.Add(item)
	}

	return set, nil
}

// H5PType reports the package content type to teachers. Package failures degrade to
// "Unknown type" and are never returned.
func (o *H5POverview) H5PType(ctx context.Context) (*Item, error) {
	if o.viewer.Role != RoleTeacher {
		return nil, nil
	}

	title := lang.Get(lang.UnknownType)
	if o.deps.Packages != nil {
		resolved, err := o.deps.Packages.ContentType(ctx, o.activity)
		switch {
		case err != nil:
			o.logger.Warn().Err(err).Str("package_ref", o.activity.PackageRef).Msg("Unable to resolve H5P content type")
		case resolved != "":
			title = resolved
		}
	}

	return &Item{
		Key:   KeyH5PType,
		Name:  lang.Get(lang.H5PType),
		Value: title,
	}, nil
}

// TotalAttempts counts every attempt on the activity; teachers only.
func (o *H5POverview) TotalAttempts(ctx context.Context) (*Item, error) {
	if o.viewer.Role != RoleTeacher {
		return nil, nil
	}

	total, err := o.deps.Store.CountAttempts(ctx, o.activity.ID)
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:   KeyTotalAttempts,
		Name:  lang.Get(lang.TotalAttempts),
		Value: total,
	}, nil
}

// MyAttempts counts the viewer's own attempts; students only.
func (o *H5POverview) MyAttempts(ctx context.Context) (*Item, error) {
	if o.viewer.Role != RoleStudent {
		return nil, nil
	}

	mine, err := o.deps.Store.CountUserAttempts(ctx, o.activity.ID, o.viewer.UserID)
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:   KeyMyAttempts,
		Name:  lang.Get(lang.MyAttempts),
		Value: mine,
	}, nil
}

// Attempted reports how many enrolled students attempted the activity; teachers only.
func (o *H5POverview) Attempted(ctx context.Context) (*Item, error) {
	if o.viewer.Role != RoleTeacher {
		return nil, nil
	}

	attempted, err := o.deps.Store.CountAttemptedUsers(ctx, o.activity.ID, o.cm.CourseID, h5pAttemptedRoles)
	if err != nil {
		return nil, err
	}
	enrolled, err := o.deps.Enrolled.CountEnrolled(ctx, o.cm.CourseID, h5pAttemptedRoles)
	if err != nil {
		return nil, err
	}

	return &Item{
		Key:     KeyAttempted,
		Name:    lang.Get(lang.Attempted),
		Value:   attempted,
		Content: lang.Get(lang.AttemptedContent, strconv.FormatInt(attempted, 10), strconv.FormatInt(enrolled, 10)),
	}, nil
}
