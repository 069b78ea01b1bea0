package overview

import (
	"errors"
	"fmt"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// ErrUnknownRole indicates an enrolment role that maps to no viewer role.
var ErrUnknownRole = errors.New("unknown enrolment role")

// ViewerRole is the closed set of audiences an overview is computed for.
type ViewerRole int

const (
	RoleStudent ViewerRole = iota
	RoleTeacher
)

func (r ViewerRole) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	default:
		return "unknown"
	}
}

// RoleFromEnrolment maps a course enrolment role onto a viewer role.
func RoleFromEnrolment(role string) (ViewerRole, error) {
	switch role {
	case models.EnrolmentRoleStudent:
		return RoleStudent, nil
	case models.EnrolmentRoleTeacher, models.EnrolmentRoleEditingTeacher, models.EnrolmentRoleManager:
		return RoleTeacher, nil
	default:
		return RoleStudent, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

// Viewer is the user an overview is computed for.
type Viewer struct {
	UserID      uint
	Role        ViewerRole
	TrackForums bool
	MailDigest  models.MailDigest
}

// NewViewer builds a viewer from a user and their enrolment in the course.
func NewViewer(user models.User, enrolment models.Enrolment) (Viewer, error) {
	role, err := RoleFromEnrolment(enrolment.NormalizedRole())
	if err != nil {
		return Viewer{}, err
	}

	return Viewer{
		UserID:      user.ID,
		Role:        role,
		TrackForums: user.TrackForums,
		MailDigest:  user.MailDigest,
	}, nil
}
