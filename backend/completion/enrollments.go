package completion

import (
	"context"
	"fmt"

	"learnflow/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const enrolledStatus = "ENROLLED"

// Enrollments answers whether a learner may use a course.
type Enrollments interface {
	IsEnrolled(ctx context.Context, learnerID, courseID uint) (bool, error)
}

type GormEnrollments struct {
	DB *gorm.DB
}

func NewGormEnrollments(db *gorm.DB) *GormEnrollments {
	return &GormEnrollments{DB: db}
}

func (e *GormEnrollments) IsEnrolled(ctx context.Context, learnerID, courseID uint) (bool, error) {
	var count int64
	err := e.DB.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", learnerID, courseID, enrolledStatus).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking enrollment (%d, %d): %w", learnerID, courseID, err)
	}
	return count > 0, nil
}

// Enroll is idempotent.
func (e *GormEnrollments) Enroll(ctx context.Context, learnerID, courseID uint) (*models.Enrollment, error) {
	db := e.DB.WithContext(ctx)
	row := models.Enrollment{UserID: learnerID, CourseID: courseID, Status: enrolledStatus}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("enrolling (%d, %d): %w", learnerID, courseID, err)
	}

	var stored models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", learnerID, courseID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("loading enrollment (%d, %d): %w", learnerID, courseID, err)
	}
	return &stored, nil
}

// EnrolledCourses lists the learner's courses, newest enrollment first.
func (e *GormEnrollments) EnrolledCourses(ctx context.Context, learnerID uint) ([]models.Course, error) {
	var courses []models.Course
	err := e.DB.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND enrollments.status = ?", learnerID, enrolledStatus).
		Order("enrollments.created_at desc, courses.id desc").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("listing courses for %d: %w", learnerID, err)
	}
	return courses, nil
}
