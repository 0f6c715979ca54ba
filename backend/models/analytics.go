package models

import "time"

// LearnerProgressRow is one learner's stored aggregate for a course.
type LearnerProgressRow struct {
	UserID               uint             `json:"user_id"`
	Username             string           `json:"username"`
	CompletedItems       int              `json:"completed_items"`
	TotalItems           int              `json:"total_items"`
	CompletionPercentage int              `json:"completion_percentage"`
	Status               CompletionStatus `json:"status"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	LastAccessedAt       time.Time        `json:"last_accessed_at"`
}

// ChapterCompletionStat counts learners who completed a chapter.
type ChapterCompletionStat struct {
	SectionID    uint   `json:"section_id"`
	SectionTitle string `json:"section_title"`
	ChapterID    uint   `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title"`
	Completed    int64  `json:"completed"`
}

type CourseAnalyticsStats struct {
	Enrolled          int64   `json:"enrolled"`
	Completed         int64   `json:"completed"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
}

type CourseAnalytics struct {
	CourseID    uint                    `json:"course_id"`
	CourseTitle string                  `json:"course_title"`
	Stats       CourseAnalyticsStats    `json:"stats"`
	Learners    []LearnerProgressRow    `json:"learners"`
	Chapters    []ChapterCompletionStat `json:"chapters"`
}
