package content_test

import (
	"context"
	"testing"
	"time"

	"learnflow/backend/content"
	"learnflow/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizServiceFetchesAndCaches(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	seeded := testutil.SeedCourse(t, db, "c", testutil.SectionSeed{Title: "S", Chapters: []string{"a"}, Quiz: true})
	sectionID := seeded.Sections[0].ID

	mc := testutil.NewMemoryCache()
	svc := content.NewQuizService(content.NewGormStore(db), mc, time.Minute, testutil.Logger(t))

	payload, err := svc.FetchQuiz(ctx, sectionID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Sections[0].Quiz.ID, payload.QuizID)
	require.Len(t, payload.Questions, 1)
	assert.Equal(t, []string{"because", "why not"}, payload.Questions[0].Options)
	assert.True(t, mc.Has("learnflow:quiz:section:"+itoa(sectionID)))

	// Served from cache even once the row is gone.
	require.NoError(t, db.Exec("DELETE FROM quizzes").Error)
	again, err := svc.FetchQuiz(ctx, sectionID)
	require.NoError(t, err)
	assert.Equal(t, payload.Title, again.Title)
}

func TestQuizServiceUnknownSection(t *testing.T) {
	db := testutil.DB(t)
	svc := content.NewQuizService(content.NewGormStore(db), testutil.NewMemoryCache(), time.Minute, testutil.Logger(t))

	_, err := svc.FetchQuiz(context.Background(), 404)
	assert.ErrorIs(t, err, content.ErrQuizNotFound)
}
