package learning

import (
	"errors"

	"learnflow/backend/completion"
	"learnflow/backend/content"
)

// ErrNotEnrolled is the only error that fails a learner request outright;
// callers redirect to the course list.
var ErrNotEnrolled = completion.ErrNotEnrolled

// NotEnrolledRedirect is where a rejected learner is sent.
const NotEnrolledRedirect = "/courses"

// ErrNotInCourse is returned when an addressed section or chapter belongs
// to another course.
var ErrNotInCourse = errors.New("content does not belong to this course")

// IsNotFound reports whether err means the addressed content is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, content.ErrCourseNotFound) ||
		errors.Is(err, content.ErrSectionNotFound) ||
		errors.Is(err, content.ErrChapterNotFound) ||
		errors.Is(err, content.ErrQuizNotFound) ||
		errors.Is(err, ErrNotInCourse)
}

const (
	warnProgressLoad   = "Progress could not be loaded; showing what is available"
	warnProgressSave   = "Your progress could not be saved; it will be retried on your next step"
	warnCompletionSave = "Course completion could not be saved"
	warnQuizSave       = "Your quiz attempt could not be saved"
)
