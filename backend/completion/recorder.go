// Package completion is the write path for learner progress: it records
// chapter, quiz and course completion events and re-aggregates the
// owning course afterwards.
package completion

import (
	"context"
	"errors"
	"fmt"

	"learnflow/backend/content"
	"learnflow/backend/models"
	"learnflow/backend/progress"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotEnrolled = errors.New("learner is not enrolled in this course")
	// ErrProgressWrite wraps store failures on the write path.
	ErrProgressWrite = errors.New("progress write failed")
)

type Result struct {
	CourseID      uint                   `json:"course_id"`
	ChapterID     uint                   `json:"chapter_id,omitempty"`
	QuizID        uint                   `json:"quiz_id,omitempty"`
	AttemptNumber int                    `json:"attempt_number,omitempty"`
	Success       bool                   `json:"success"`
	Course        *progress.CourseStatus `json:"course_progress,omitempty"`
}

type Recorder struct {
	content     content.Store
	store       progress.Store
	facts       *progress.CachedFacts
	enrollments Enrollments
	log         *zap.Logger

	inflight singleflight.Group
}

func NewRecorder(contentStore content.Store, store progress.Store, facts *progress.CachedFacts, enrollments Enrollments, log *zap.Logger) *Recorder {
	return &Recorder{
		content:     contentStore,
		store:       store,
		facts:       facts,
		enrollments: enrollments,
		log:         log,
	}
}

// RecordChapterComplete marks the chapter completed. Repeating it is a
// successful no-op.
func (r *Recorder) RecordChapterComplete(ctx context.Context, learnerID, chapterID uint) (Result, error) {
	chapter, err := r.content.GetChapter(ctx, chapterID)
	if err != nil {
		return Result{}, err
	}
	section, err := r.content.GetSection(ctx, chapter.SectionID)
	if err != nil {
		return Result{}, err
	}
	if err := r.requireEnrollment(ctx, learnerID, section.CourseID); err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("chapter:%d:%d", learnerID, chapterID)
	v, err, shared := r.inflight.Do(key, func() (interface{}, error) {
		kind := models.ParseContentKind(string(chapter.Kind))
		if err := r.store.UpsertChapterCompletion(ctx, learnerID, chapterID, kind); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrProgressWrite, err)
		}
		r.facts.Invalidate(ctx, learnerID, section.CourseID)

		res := Result{CourseID: section.CourseID, ChapterID: chapterID, Success: true}
		res.Course = r.reaggregateSoft(ctx, learnerID, section.CourseID)
		return res, nil
	})
	if shared {
		r.log.Debug("collapsed duplicate chapter completion",
			zap.Uint("learner_id", learnerID), zap.Uint("chapter_id", chapterID))
	}
	return v.(Result), err
}

// RecordQuizAttempt stores an attempt on the section's quiz. Answers are
// kept verbatim and never scored.
func (r *Recorder) RecordQuizAttempt(ctx context.Context, learnerID, sectionID uint, answers string) (Result, error) {
	section, err := r.content.GetSection(ctx, sectionID)
	if err != nil {
		return Result{}, err
	}
	if err := r.requireEnrollment(ctx, learnerID, section.CourseID); err != nil {
		return Result{}, err
	}
	quiz, err := r.content.GetQuiz(ctx, sectionID)
	if err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("quiz:%d:%d:%s", learnerID, quiz.ID, answers)
	v, err, _ := r.inflight.Do(key, func() (interface{}, error) {
		n, err := r.store.RecordQuizAttempt(ctx, learnerID, quiz.ID, answers)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrProgressWrite, err)
		}
		r.facts.Invalidate(ctx, learnerID, section.CourseID)

		res := Result{CourseID: section.CourseID, QuizID: quiz.ID, AttemptNumber: n, Success: true}
		res.Course = r.reaggregateSoft(ctx, learnerID, section.CourseID)
		return res, nil
	})
	return v.(Result), err
}

// RecordCourseComplete stores the course as completed whatever the
// per-item state. An early finish is logged, not refused.
func (r *Recorder) RecordCourseComplete(ctx context.Context, learnerID, courseID uint) (Result, error) {
	if _, err := r.content.GetCourse(ctx, courseID); err != nil {
		return Result{}, err
	}
	if err := r.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("course:%d:%d", learnerID, courseID)
	v, err, _ := r.inflight.Do(key, func() (interface{}, error) {
		st, err := r.Aggregate(ctx, learnerID, courseID)
		if err != nil {
			r.log.Warn("finishing course without fresh aggregate",
				zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
			st = progress.CourseStatus{CourseID: courseID}
			if cp, gerr := r.store.GetCourseProgress(ctx, learnerID, courseID); gerr == nil {
				st.CompletedItems = cp.CompletedItems
				st.TotalItems = cp.TotalItems
				st.Percentage = cp.CompletionPercentage
			}
		}
		if st.Status != models.StatusCompleted {
			r.log.Warn("course finished before all items were complete",
				zap.Uint("learner_id", learnerID),
				zap.Uint("course_id", courseID),
				zap.Int("percentage", st.Percentage))
		}
		st.Status = models.StatusCompleted

		if _, err := r.store.UpsertCourseProgress(ctx, learnerID, courseID, st); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrProgressWrite, err)
		}
		return Result{CourseID: courseID, Success: true, Course: &st}, nil
	})
	return v.(Result), err
}

// Aggregate recomputes the course status from current facts without
// writing it.
func (r *Recorder) Aggregate(ctx context.Context, learnerID, courseID uint) (progress.CourseStatus, error) {
	tree, err := content.LoadTree(ctx, r.content, courseID)
	if err != nil {
		return progress.CourseStatus{CourseID: courseID}, err
	}
	facts, err := r.facts.Load(ctx, learnerID, tree)
	st := progress.NewAggregator(tree, facts).CourseStatus()
	return st, err
}

// reaggregateSoft refreshes the stored CourseProgress. Failures are
// logged; the next interaction retries.
func (r *Recorder) reaggregateSoft(ctx context.Context, learnerID, courseID uint) *progress.CourseStatus {
	st, err := r.Aggregate(ctx, learnerID, courseID)
	if err != nil {
		r.log.Warn("re-aggregation failed",
			zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
		return nil
	}
	if _, err := r.store.UpsertCourseProgress(ctx, learnerID, courseID, st); err != nil {
		r.log.Warn("course progress write failed",
			zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
	}
	return &st
}

func (r *Recorder) requireEnrollment(ctx context.Context, learnerID, courseID uint) error {
	ok, err := r.enrollments.IsEnrolled(ctx, learnerID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}
