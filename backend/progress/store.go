// Package progress persists per-learner completion facts and derives
// section and course completion from them.
package progress

import (
	"context"
	"errors"

	"learnflow/backend/models"
)

var ErrNoCourseProgress = errors.New("no course progress recorded")

// Facts is the raw completion state of one learner over one course.
type Facts struct {
	CompletedChapters map[uint]bool `json:"completed_chapters"`
	// QuizAttempts is keyed by quiz id.
	QuizAttempts map[uint]int `json:"quiz_attempts"`
}

func NewFacts() Facts {
	return Facts{
		CompletedChapters: make(map[uint]bool),
		QuizAttempts:      make(map[uint]int),
	}
}

// Store is the progress persistence adapter. Every write is an upsert on
// the natural (learner, item) key and never reverts a completion.
type Store interface {
	// LoadFacts returns whatever was loaded alongside any error.
	LoadFacts(ctx context.Context, learnerID uint, chapterIDs, quizIDs []uint) (Facts, error)
	GetChapterCompletion(ctx context.Context, learnerID, chapterID uint) (bool, error)
	UpsertChapterCompletion(ctx context.Context, learnerID, chapterID uint, kind models.ContentKind) error
	GetQuizAttemptCount(ctx context.Context, learnerID, quizID uint) (int, error)
	// RecordQuizAttempt stores a new attempt and returns its number.
	RecordQuizAttempt(ctx context.Context, learnerID, quizID uint, answers string) (int, error)
	TouchSectionAccess(ctx context.Context, learnerID, sectionID uint) error
	UpsertCourseProgress(ctx context.Context, learnerID, courseID uint, st CourseStatus) (*models.CourseProgress, error)
	GetCourseProgress(ctx context.Context, learnerID, courseID uint) (*models.CourseProgress, error)
}
