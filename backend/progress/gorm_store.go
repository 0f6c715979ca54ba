package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnflow/backend/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxAttemptNumberRetries = 3

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) LoadFacts(ctx context.Context, learnerID uint, chapterIDs, quizIDs []uint) (Facts, error) {
	var (
		completed []uint
		attempts  []struct {
			QuizID uint
			Total  int
		}
	)

	// Independent queries: one failing must not cancel the other, the
	// caller renders with whatever loaded.
	var g errgroup.Group
	if len(chapterIDs) > 0 {
		g.Go(func() error {
			err := s.DB.WithContext(ctx).
				Model(&models.ChapterProgress{}).
				Where("user_id = ? AND chapter_id IN ? AND completed = ?", learnerID, chapterIDs, true).
				Pluck("chapter_id", &completed).Error
			if err != nil {
				return fmt.Errorf("loading chapter progress: %w", err)
			}
			return nil
		})
	}
	if len(quizIDs) > 0 {
		g.Go(func() error {
			err := s.DB.WithContext(ctx).
				Model(&models.QuizAttempt{}).
				Select("quiz_id, COUNT(*) AS total").
				Where("user_id = ? AND quiz_id IN ?", learnerID, quizIDs).
				Group("quiz_id").
				Scan(&attempts).Error
			if err != nil {
				return fmt.Errorf("loading quiz attempts: %w", err)
			}
			return nil
		})
	}
	err := g.Wait()

	facts := NewFacts()
	for _, id := range completed {
		facts.CompletedChapters[id] = true
	}
	for _, a := range attempts {
		facts.QuizAttempts[a.QuizID] = a.Total
	}
	return facts, err
}

func (s *GormStore) GetChapterCompletion(ctx context.Context, learnerID, chapterID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.ChapterProgress{}).
		Where("user_id = ? AND chapter_id = ? AND completed = ?", learnerID, chapterID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking chapter %d: %w", chapterID, err)
	}
	return count > 0, nil
}

// UpsertChapterCompletion marks the chapter completed. completed_at keeps
// its first value.
func (s *GormStore) UpsertChapterCompletion(ctx context.Context, learnerID, chapterID uint, kind models.ContentKind) error {
	now := time.Now()
	row := models.ChapterProgress{
		UserID:      learnerID,
		ChapterID:   chapterID,
		Kind:        kind,
		Completed:   true,
		CompletedAt: &now,
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "chapter_id"}},
		DoUpdates: append(clause.AssignmentColumns([]string{"kind", "completed", "updated_at"}),
			clause.Assignment{
				Column: clause.Column{Name: "completed_at"},
				Value:  gorm.Expr("COALESCE(chapter_progress.completed_at, excluded.completed_at)"),
			},
		),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upserting chapter progress (%d, %d): %w", learnerID, chapterID, err)
	}
	return nil
}

func (s *GormStore) GetQuizAttemptCount(ctx context.Context, learnerID, quizID uint) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", learnerID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting attempts for quiz %d: %w", quizID, err)
	}
	return int(count), nil
}

// RecordQuizAttempt appends an attempt. A concurrent writer that took the
// same number makes the insert a no-op, so the count is re-read and the
// next number tried.
func (s *GormStore) RecordQuizAttempt(ctx context.Context, learnerID, quizID uint, answers string) (int, error) {
	for i := 0; i < maxAttemptNumberRetries; i++ {
		count, err := s.GetQuizAttemptCount(ctx, learnerID, quizID)
		if err != nil {
			return 0, err
		}

		attempt := models.QuizAttempt{
			UserID:        learnerID,
			QuizID:        quizID,
			AttemptNumber: count + 1,
			Answers:       datatypes.JSON(answers),
		}
		result := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&attempt)
		if result.Error != nil {
			return 0, fmt.Errorf("recording attempt for quiz %d: %w", quizID, result.Error)
		}
		if result.RowsAffected > 0 {
			return attempt.AttemptNumber, nil
		}
	}
	return 0, fmt.Errorf("recording attempt for quiz %d: attempt number contended", quizID)
}

func (s *GormStore) TouchSectionAccess(ctx context.Context, learnerID, sectionID uint) error {
	row := models.SectionAccess{
		UserID:         learnerID,
		SectionID:      sectionID,
		LastAccessedAt: time.Now(),
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "section_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_accessed_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("touching section access (%d, %d): %w", learnerID, sectionID, err)
	}
	return nil
}

// UpsertCourseProgress overwrites the aggregate fields. Once stored as
// completed the status stays completed and completed_at keeps its first
// value.
func (s *GormStore) UpsertCourseProgress(ctx context.Context, learnerID, courseID uint, st CourseStatus) (*models.CourseProgress, error) {
	now := time.Now()
	row := models.CourseProgress{
		UserID:               learnerID,
		CourseID:             courseID,
		CompletedItems:       st.CompletedItems,
		TotalItems:           st.TotalItems,
		CompletionPercentage: st.Percentage,
		Status:               st.Status,
		LastAccessedAt:       now,
	}
	if st.Status == models.StatusCompleted {
		row.CompletedAt = &now
	}

	updates := clause.AssignmentColumns([]string{
		"completed_items", "total_items", "completion_percentage", "last_accessed_at", "updated_at",
	})
	updates = append(updates,
		clause.Assignment{
			Column: clause.Column{Name: "status"},
			Value: gorm.Expr("CASE WHEN course_progress.status = ? THEN course_progress.status ELSE excluded.status END",
				models.StatusCompleted),
		},
		clause.Assignment{
			Column: clause.Column{Name: "completed_at"},
			Value:  gorm.Expr("COALESCE(course_progress.completed_at, excluded.completed_at)"),
		},
	)

	db := s.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: updates,
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upserting course progress (%d, %d): %w", learnerID, courseID, err)
	}
	return s.GetCourseProgress(ctx, learnerID, courseID)
}

func (s *GormStore) GetCourseProgress(ctx context.Context, learnerID, courseID uint) (*models.CourseProgress, error) {
	var cp models.CourseProgress
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", learnerID, courseID).
		First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoCourseProgress
	}
	if err != nil {
		return nil, fmt.Errorf("loading course progress (%d, %d): %w", learnerID, courseID, err)
	}
	return &cp, nil
}

// ListCourseProgress returns every stored aggregate for the learner.
func (s *GormStore) ListCourseProgress(ctx context.Context, learnerID uint) ([]models.CourseProgress, error) {
	var rows []models.CourseProgress
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", learnerID).
		Order("last_accessed_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing course progress for %d: %w", learnerID, err)
	}
	return rows, nil
}

// Overview counts the learner's progress across all enrolled courses.
func (s *GormStore) Overview(ctx context.Context, learnerID uint) (models.ProgressOverview, error) {
	var ov models.ProgressOverview
	db := s.DB.WithContext(ctx)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Model(&models.Enrollment{}).Where("user_id = ?", learnerID).Count(&ov.CoursesEnrolled).Error
	})
	g.Go(func() error {
		return db.Model(&models.CourseProgress{}).
			Where("user_id = ? AND status = ?", learnerID, models.StatusInProgress).
			Count(&ov.CoursesInProgress).Error
	})
	g.Go(func() error {
		return db.Model(&models.CourseProgress{}).
			Where("user_id = ? AND status = ?", learnerID, models.StatusCompleted).
			Count(&ov.CoursesCompleted).Error
	})
	g.Go(func() error {
		return db.Model(&models.ChapterProgress{}).
			Where("user_id = ? AND completed = ?", learnerID, true).
			Count(&ov.ChaptersCompleted).Error
	})
	g.Go(func() error {
		return db.Model(&models.QuizAttempt{}).
			Where("user_id = ?", learnerID).
			Distinct("quiz_id").
			Count(&ov.QuizzesAttempted).Error
	})
	if err := g.Wait(); err != nil {
		return ov, fmt.Errorf("loading progress overview for %d: %w", learnerID, err)
	}
	return ov, nil
}
