package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// H5PRepository persists H5P activities and their attempts.
type H5PRepository interface {
	GetActivity(ctx context.Context, id uint) (models.H5PActivity, error)
	CountAttempts(ctx context.Context, activityID uint) (int64, error)
	CountUserAttempts(ctx context.Context, activityID, userID uint) (int64, error)
	CountAttemptedUsers(ctx context.Context, activityID, courseID uint, roles ...string) (int64, error)
	CreateAttempt(ctx context.Context, attempt *models.H5PAttempt) error
	SetPackageRef(ctx context.Context, activityID uint, ref string) error
}

type h5pRepository struct {
	db *gorm.DB
}

// NewH5PRepository constructs a GORM-backed repository.
func NewH5PRepository(db *gorm.DB) H5PRepository {
	return &h5pRepository{db: db}
}

func (r *h5pRepository) GetActivity(ctx context.Context, id uint) (models.H5PActivity, error) {
	var activity models.H5PActivity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.H5PActivity{}, err
	}
	return activity, nil
}

func (r *h5pRepository) CountAttempts(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.H5PAttempt{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *h5pRepository) CountUserAttempts(ctx context.Context, activityID, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.H5PAttempt{}).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountAttemptedUsers counts distinct users with an attempt who hold one of roles in the course.
func (r *h5pRepository) CountAttemptedUsers(ctx context.Context, activityID, courseID uint, roles ...string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.H5PAttempt{}).
		Joins("JOIN enrolments ON enrolments.user_id = h5p_attempts.user_id AND enrolments.course_id = ?", courseID).
		Where("h5p_attempts.activity_id = ?", activityID)
	if len(roles) > 0 {
		query = query.Where("enrolments.role IN ?", roles)
	}

	var count int64
	if err := query.Distinct("h5p_attempts.user_id").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateAttempt numbers the attempt after the user's previous attempts.
func (r *h5pRepository) CreateAttempt(ctx context.Context, attempt *models.H5PAttempt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.H5PAttempt{}).
			Where("activity_id = ? AND user_id = ?", attempt.ActivityID, attempt.UserID).
			Select("COALESCE(MAX(attempt), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		attempt.Attempt = last + 1
		return tx.Create(attempt).Error
	})
}

func (r *h5pRepository) SetPackageRef(ctx context.Context, activityID uint, ref string) error {
	result := r.db.WithContext(ctx).
		Model(&models.H5PActivity{}).
		Where("id = ?", activityID).
		UpdateColumn("package_ref", ref)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
