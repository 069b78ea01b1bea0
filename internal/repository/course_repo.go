package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// CourseRepository reads courses, course modules, users and enrolments.
type CourseRepository interface {
	GetCourseModule(ctx context.Context, id uint) (models.CourseModule, error)
	ListCourseModules(ctx context.Context, courseID uint, moduleType string) ([]models.CourseModule, error)
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetEnrolment(ctx context.Context, courseID, userID uint) (models.Enrolment, error)
	CountEnrolled(ctx context.Context, courseID uint, roles ...string) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetCourseModule(ctx context.Context, id uint) (models.CourseModule, error) {
	var cm models.CourseModule
	if err := r.db.WithContext(ctx).First(&cm, id).Error; err != nil {
		return models.CourseModule{}, err
	}
	return cm, nil
}

func (r *courseRepository) ListCourseModules(ctx context.Context, courseID uint, moduleType string) ([]models.CourseModule, error) {
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if moduleType != "" {
		query = query.Where("module_type = ?", moduleType)
	}

	var modules []models.CourseModule
	if err := query.Order("section ASC").Order("position ASC").Order("id ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *courseRepository) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *courseRepository) GetEnrolment(ctx context.Context, courseID, userID uint) (models.Enrolment, error) {
	var enrolment models.Enrolment
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&enrolment).Error; err != nil {
		return models.Enrolment{}, err
	}
	return enrolment, nil
}

func (r *courseRepository) CountEnrolled(ctx context.Context, courseID uint, roles ...string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Enrolment{}).Where("course_id = ?", courseID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
