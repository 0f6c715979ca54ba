package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompletionStatus is the derived status of a CourseProgress row.
type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "not_started"
	StatusInProgress CompletionStatus = "in_progress"
	StatusCompleted  CompletionStatus = "completed"
)

// ChapterProgress is created on first interaction and never deleted.
type ChapterProgress struct {
	gorm.Model
	UserID      uint        `gorm:"uniqueIndex:idx_chapter_progress_user_chapter;not null"`
	ChapterID   uint        `gorm:"uniqueIndex:idx_chapter_progress_user_chapter;not null"`
	Kind        ContentKind `gorm:"type:varchar(16)"`
	Completed   bool        `gorm:"default:false"`
	CompletedAt *time.Time
}

func (ChapterProgress) TableName() string { return "chapter_progress" }

// SectionAccess exists once the learner has opened the section.
type SectionAccess struct {
	gorm.Model
	UserID         uint `gorm:"uniqueIndex:idx_section_access_user_section;not null"`
	SectionID      uint `gorm:"uniqueIndex:idx_section_access_user_section;not null"`
	LastAccessedAt time.Time
}

func (SectionAccess) TableName() string { return "section_access" }

type QuizAttempt struct {
	gorm.Model
	UserID        uint           `gorm:"uniqueIndex:idx_quiz_attempt_user_quiz_number;not null"`
	QuizID        uint           `gorm:"uniqueIndex:idx_quiz_attempt_user_quiz_number;not null"`
	AttemptNumber int            `gorm:"uniqueIndex:idx_quiz_attempt_user_quiz_number;not null"`
	Answers       datatypes.JSON // stored verbatim, never scored
}

// CourseProgress is a derived cache over the chapter and quiz facts.
type CourseProgress struct {
	gorm.Model
	UserID               uint             `gorm:"uniqueIndex:idx_course_progress_user_course;not null"`
	CourseID             uint             `gorm:"uniqueIndex:idx_course_progress_user_course;not null"`
	CompletedItems       int              `gorm:"default:0"`
	TotalItems           int              `gorm:"default:0"`
	CompletionPercentage int              `gorm:"default:0"`
	Status               CompletionStatus `gorm:"type:varchar(16);default:'not_started'"`
	CompletedAt          *time.Time
	LastAccessedAt       time.Time
}

func (CourseProgress) TableName() string { return "course_progress" }

type Enrollment struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID uint   `gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	Status   string `gorm:"default:'ENROLLED'"`
}

// ProgressOverview summarises a learner's progress across courses.
type ProgressOverview struct {
	CoursesEnrolled   int64 `json:"courses_enrolled"`
	CoursesInProgress int64 `json:"courses_in_progress"`
	CoursesCompleted  int64 `json:"courses_completed"`
	ChaptersCompleted int64 `json:"chapters_completed"`
	QuizzesAttempted  int64 `json:"quizzes_attempted"`
}
