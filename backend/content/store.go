package content

import (
	"context"
	"errors"
	"fmt"

	"learnflow/backend/models"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrQuizNotFound    = errors.New("quiz not found")
)

// Store is the read side of course content.
type Store interface {
	GetCourse(ctx context.Context, courseID uint) (*models.Course, error)
	// GetSections returns the course's sections with chapters and quiz attached.
	GetSections(ctx context.Context, courseID uint) ([]models.Section, error)
	GetSection(ctx context.Context, sectionID uint) (*models.Section, error)
	GetChapter(ctx context.Context, chapterID uint) (*models.Chapter, error)
	// GetQuiz returns ErrQuizNotFound when the section has no quiz.
	GetQuiz(ctx context.Context, sectionID uint) (*models.Quiz, error)
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := s.DB.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, notFound(err, ErrCourseNotFound, "course", courseID)
	}
	return &course, nil
}

func (s *GormStore) GetSections(ctx context.Context, courseID uint) ([]models.Section, error) {
	var sections []models.Section
	err := s.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Preload("Chapters").
		Preload("Quiz").
		Order("order_index asc, id asc").
		Find(&sections).Error
	if err != nil {
		return nil, fmt.Errorf("loading sections for course %d: %w", courseID, err)
	}
	return sections, nil
}

func (s *GormStore) GetSection(ctx context.Context, sectionID uint) (*models.Section, error) {
	var section models.Section
	if err := s.DB.WithContext(ctx).First(&section, sectionID).Error; err != nil {
		return nil, notFound(err, ErrSectionNotFound, "section", sectionID)
	}
	return &section, nil
}

func (s *GormStore) GetChapter(ctx context.Context, chapterID uint) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := s.DB.WithContext(ctx).First(&chapter, chapterID).Error; err != nil {
		return nil, notFound(err, ErrChapterNotFound, "chapter", chapterID)
	}
	return &chapter, nil
}

func (s *GormStore) GetQuiz(ctx context.Context, sectionID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.DB.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order asc, id asc")
		}).
		First(&quiz).Error
	if err != nil {
		return nil, notFound(err, ErrQuizNotFound, "quiz for section", sectionID)
	}
	return &quiz, nil
}

func notFound(err, sentinel error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, sentinel)
	}
	return fmt.Errorf("loading %s %d: %w", what, id, err)
}

// LoadTree builds the ContentTree for one course.
func LoadTree(ctx context.Context, store Store, courseID uint) (*Tree, error) {
	course, err := store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sections, err := store.GetSections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return NewTree(*course, sections), nil
}
