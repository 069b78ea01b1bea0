package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/testutil"
)

func TestCourseRepositoryEnrolmentsAndModules(t *testing.T) {
	db := testutil.NewDB(t)
	gen := testutil.NewGenerator(t, db)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	course := gen.CreateCourse()
	teacher := gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	outsider := gen.CreateUser()

	_, forumCM := gen.CreateForum(course)
	_, h5pCM := gen.CreateH5PActivity(course, "")

	students, err := repo.CountEnrolled(ctx, course.ID, models.EnrolmentRoleStudent)
	require.NoError(t, err)
	require.Equal(t, int64(2), students)

	everyone, err := repo.CountEnrolled(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), everyone)

	enrolment, err := repo.GetEnrolment(ctx, course.ID, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, models.EnrolmentRoleEditingTeacher, enrolment.NormalizedRole())

	_, err = repo.GetEnrolment(ctx, course.ID, outsider.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	modules, err := repo.ListCourseModules(ctx, course.ID, "")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	require.Equal(t, forumCM.ID, modules[0].ID)
	require.Equal(t, h5pCM.ID, modules[1].ID)

	forums, err := repo.ListCourseModules(ctx, course.ID, models.ModuleForum)
	require.NoError(t, err)
	require.Len(t, forums, 1)

	cm, err := repo.GetCourseModule(ctx, h5pCM.ID)
	require.NoError(t, err)
	require.Equal(t, models.ModuleH5PActivity, cm.ModuleType)
}
