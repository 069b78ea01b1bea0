package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
)

// ErrNotEnrolled indicates the user has no usable enrolment in the activity's course.
var ErrNotEnrolled = errors.New("user is not enrolled in the course")

// loadViewer resolves the user's preferences and course role.
func loadViewer(ctx context.Context, courses repository.CourseRepository, courseID, userID uint) (overview.Viewer, error) {
	enrolment, err := courses.GetEnrolment(ctx, courseID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return overview.Viewer{}, ErrNotEnrolled
	}
	if err != nil {
		return overview.Viewer{}, err
	}

	user, err := courses.GetUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return overview.Viewer{}, ErrNotEnrolled
	}
	if err != nil {
		return overview.Viewer{}, err
	}

	viewer, err := overview.NewViewer(user, enrolment)
	if errors.Is(err, overview.ErrUnknownRole) {
		return overview.Viewer{}, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}
	return viewer, err
}
