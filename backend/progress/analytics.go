package progress

import (
	"context"
	"fmt"

	"learnflow/backend/models"

	"golang.org/x/sync/errgroup"
)

// CourseAnalytics collects stored aggregates and per-chapter completion
// counts for one course. The course itself must exist.
func (s *GormStore) CourseAnalytics(ctx context.Context, course *models.Course) (*models.CourseAnalytics, error) {
	out := &models.CourseAnalytics{CourseID: course.ID, CourseTitle: course.Title}
	db := s.DB.WithContext(ctx)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Model(&models.Enrollment{}).
			Where("course_id = ?", course.ID).
			Count(&out.Stats.Enrolled).Error
	})
	g.Go(func() error {
		return db.Model(&models.CourseProgress{}).
			Where("course_id = ? AND status = ?", course.ID, models.StatusCompleted).
			Count(&out.Stats.Completed).Error
	})
	g.Go(func() error {
		return db.Model(&models.CourseProgress{}).
			Select("COALESCE(AVG(completion_percentage), 0)").
			Where("course_id = ?", course.ID).
			Scan(&out.Stats.AvgCompletionRate).Error
	})
	g.Go(func() error {
		return db.Table("course_progress cp").
			Select(`cp.user_id, u.username, cp.completed_items, cp.total_items,
				cp.completion_percentage, cp.status, cp.completed_at, cp.last_accessed_at`).
			Joins("JOIN users u ON u.id = cp.user_id").
			Where("cp.course_id = ? AND cp.deleted_at IS NULL", course.ID).
			Order("cp.completion_percentage desc, cp.user_id asc").
			Scan(&out.Learners).Error
	})
	g.Go(func() error {
		return db.Raw(`
			SELECT s.id AS section_id, s.title AS section_title,
				ch.id AS chapter_id, ch.title AS chapter_title,
				COUNT(cp.id) AS completed
			FROM chapters ch
			JOIN sections s ON s.id = ch.section_id
			LEFT JOIN chapter_progress cp ON cp.chapter_id = ch.id AND cp.completed = ?
			WHERE s.course_id = ? AND s.deleted_at IS NULL AND ch.deleted_at IS NULL
			GROUP BY s.id, s.title, s.order_index, ch.id, ch.title, ch.order_index
			ORDER BY s.order_index, s.id, ch.order_index, ch.id
		`, true, course.ID).Scan(&out.Chapters).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading analytics for course %d: %w", course.ID, err)
	}
	return out, nil
}
