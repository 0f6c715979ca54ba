package completion_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"learnflow/backend/completion"
	"learnflow/backend/content"
	"learnflow/backend/models"
	"learnflow/backend/progress"
	"learnflow/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	recorder *completion.Recorder
	store    *progress.GormStore
	course   *models.Course
	learner  *models.User
}

// Section A: 3 chapters + quiz. Section B: 2 chapters.
func newFixture(t *testing.T) *fixture {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Ethics",
		testutil.SectionSeed{Title: "A", Chapters: []string{"a1", "a2", "a3"}, Quiz: true},
		testutil.SectionSeed{Title: "B", Chapters: []string{"b1", "b2"}},
	)
	learner := testutil.SeedUser(t, db, "learner", "user")
	testutil.SeedEnrollment(t, db, learner.ID, course.ID)

	log := testutil.Logger(t)
	store := progress.NewGormStore(db)
	facts := progress.NewCachedFacts(store, testutil.NewMemoryCache(), time.Minute, log)
	rec := completion.NewRecorder(content.NewGormStore(db), store, facts, completion.NewGormEnrollments(db), log)
	return &fixture{db: db, recorder: rec, store: store, course: course, learner: learner}
}

func TestRecordChapterCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chapterID := f.course.Sections[0].Chapters[0].ID

	for i := 0; i < 2; i++ {
		res, err := f.recorder.RecordChapterComplete(ctx, f.learner.ID, chapterID)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, chapterID, res.ChapterID)
		require.NotNil(t, res.Course)
		assert.Equal(t, 1, res.Course.CompletedItems)
		assert.Equal(t, 6, res.Course.TotalItems)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.ChapterProgress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	cp, err := f.store.GetCourseProgress(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, cp.CompletionPercentage)
	assert.Equal(t, models.StatusInProgress, cp.Status)
}

func TestConcurrentDuplicateSubmissionsConverge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chapterID := f.course.Sections[1].Chapters[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.recorder.RecordChapterComplete(ctx, f.learner.ID, chapterID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.ChapterProgress{}).Where("chapter_id = ?", chapterID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPercentageAfterChaptersAndQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ch := range f.course.Sections[0].Chapters {
		_, err := f.recorder.RecordChapterComplete(ctx, f.learner.ID, ch.ID)
		require.NoError(t, err)
	}
	_, err := f.recorder.RecordChapterComplete(ctx, f.learner.ID, f.course.Sections[1].Chapters[0].ID)
	require.NoError(t, err)

	res, err := f.recorder.RecordQuizAttempt(ctx, f.learner.ID, f.course.Sections[0].ID, `{"1":"because"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AttemptNumber)
	assert.Equal(t, f.course.Sections[0].Quiz.ID, res.QuizID)
	require.NotNil(t, res.Course)
	assert.Equal(t, 83, res.Course.Percentage)

	cp, err := f.store.GetCourseProgress(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cp.CompletedItems)
	assert.Equal(t, 83, cp.CompletionPercentage)
}

func TestNotEnrolledIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := testutil.SeedUser(t, f.db, "stranger", "user")

	_, err := f.recorder.RecordChapterComplete(ctx, stranger.ID, f.course.Sections[0].Chapters[0].ID)
	assert.ErrorIs(t, err, completion.ErrNotEnrolled)

	_, err = f.recorder.RecordQuizAttempt(ctx, stranger.ID, f.course.Sections[0].ID, "")
	assert.ErrorIs(t, err, completion.ErrNotEnrolled)

	_, err = f.recorder.RecordCourseComplete(ctx, stranger.ID, f.course.ID)
	assert.ErrorIs(t, err, completion.ErrNotEnrolled)

	var count int64
	require.NoError(t, f.db.Model(&models.ChapterProgress{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnknownContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordChapterComplete(ctx, f.learner.ID, 9999)
	assert.ErrorIs(t, err, content.ErrChapterNotFound)

	_, err = f.recorder.RecordQuizAttempt(ctx, f.learner.ID, f.course.Sections[1].ID, "")
	assert.ErrorIs(t, err, content.ErrQuizNotFound)

	_, err = f.recorder.RecordCourseComplete(ctx, f.learner.ID, 9999)
	assert.ErrorIs(t, err, content.ErrCourseNotFound)
}

func TestManualCourseCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recorder.RecordChapterComplete(ctx, f.learner.ID, f.course.Sections[0].Chapters[0].ID)
	require.NoError(t, err)

	res, err := f.recorder.RecordCourseComplete(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.StatusCompleted, res.Course.Status)

	cp, err := f.store.GetCourseProgress(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, cp.Status)
	assert.Equal(t, 17, cp.CompletionPercentage)
	require.NotNil(t, cp.CompletedAt)
	completedAt := *cp.CompletedAt

	// Later events recompute the counts but the course stays completed.
	time.Sleep(5 * time.Millisecond)
	_, err = f.recorder.RecordChapterComplete(ctx, f.learner.ID, f.course.Sections[0].Chapters[1].ID)
	require.NoError(t, err)
	_, err = f.recorder.RecordCourseComplete(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)

	cp, err = f.store.GetCourseProgress(ctx, f.learner.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, cp.Status)
	assert.Equal(t, 33, cp.CompletionPercentage)
	assert.True(t, completedAt.Equal(*cp.CompletedAt))
}
