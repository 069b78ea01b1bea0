package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
	"github.com/noah-isme/gema-overview-api/internal/testutil"
)

func TestH5PRepositoryAttemptCounts(t *testing.T) {
	db := testutil.NewDB(t)
	gen := testutil.NewGenerator(t, db)
	repo := NewH5PRepository(db)
	ctx := context.Background()

	course := gen.CreateCourse()
	student := gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	other := gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	activity, _ := gen.CreateH5PActivity(course, "")

	total, err := repo.CountAttempts(ctx, activity.ID)
	require.NoError(t, err)
	require.Zero(t, total)

	gen.CreateAttempt(activity, other)
	gen.CreateAttempt(activity, other)
	gen.CreateAttempt(activity, student)

	total, err = repo.CountAttempts(ctx, activity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	mine, err := repo.CountUserAttempts(ctx, activity.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), mine)

	users, err := repo.CountAttemptedUsers(ctx, activity.ID, course.ID, models.EnrolmentRoleStudent)
	require.NoError(t, err)
	require.Equal(t, int64(2), users)
}

func TestH5PRepositoryCountAttemptedUsersFiltersByRole(t *testing.T) {
	db := testutil.NewDB(t)
	gen := testutil.NewGenerator(t, db)
	repo := NewH5PRepository(db)
	ctx := context.Background()

	course := gen.CreateCourse()
	student := gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	teacher := gen.CreateAndEnrol(course, models.EnrolmentRoleEditingTeacher)
	outsider := gen.CreateUser()
	activity, _ := gen.CreateH5PActivity(course, "")

	gen.CreateAttempt(activity, student)
	gen.CreateAttempt(activity, teacher)
	gen.CreateAttempt(activity, outsider)

	students, err := repo.CountAttemptedUsers(ctx, activity.ID, course.ID, models.EnrolmentRoleStudent)
	require.NoError(t, err)
	require.Equal(t, int64(1), students)

	enrolled, err := repo.CountAttemptedUsers(ctx, activity.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), enrolled)
}

func TestH5PRepositoryCreateAttemptNumbersPerUser(t *testing.T) {
	db := testutil.NewDB(t)
	gen := testutil.NewGenerator(t, db)
	repo := NewH5PRepository(db)
	ctx := context.Background()

	course := gen.CreateCourse()
	student := gen.CreateAndEnrol(course, models.EnrolmentRoleStudent)
	activity, _ := gen.CreateH5PActivity(course, "")

	first := models.H5PAttempt{ActivityID: activity.ID, UserID: student.ID, Result: datatypes.JSONMap{"duration": "PT30S"}}
	require.NoError(t, repo.CreateAttempt(ctx, &first))
	second := models.H5PAttempt{ActivityID: activity.ID, UserID: student.ID}
	require.NoError(t, repo.CreateAttempt(ctx, &second))

	require.Equal(t, 1, first.Attempt)
	require.Equal(t, 2, second.Attempt)
}

func TestH5PRepositorySetPackageRef(t *testing.T) {
	db := testutil.NewDB(t)
	gen := testutil.NewGenerator(t, db)
	repo := NewH5PRepository(db)
	ctx := context.Background()

	activity, _ := gen.CreateH5PActivity(gen.CreateCourse(), "")
	require.NoError(t, repo.SetPackageRef(ctx, activity.ID, "h5p/1/package.h5p"))

	stored, err := repo.GetActivity(ctx, activity.ID)
	require.NoError(t, err)
	require.Equal(t, "h5p/1/package.h5p", stored.PackageRef)

	require.ErrorIs(t, repo.SetPackageRef(ctx, 9999, "x.h5p"), gorm.ErrRecordNotFound)
}
