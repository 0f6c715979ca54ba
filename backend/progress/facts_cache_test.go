package progress_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"learnflow/backend/content"
	"learnflow/backend/models"
	"learnflow/backend/progress"
	"learnflow/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedFactsInvalidate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	seeded := testutil.SeedCourse(t, db, "c", testutil.SectionSeed{Title: "S", Chapters: []string{"a", "b"}})
	tree, err := content.LoadTree(ctx, content.NewGormStore(db), seeded.ID)
	require.NoError(t, err)

	store := progress.NewGormStore(db)
	mc := testutil.NewMemoryCache()
	facts := progress.NewCachedFacts(store, mc, time.Minute, testutil.Logger(t))

	f, err := facts.Load(ctx, 1, tree)
	require.NoError(t, err)
	assert.Empty(t, f.CompletedChapters)

	chapterID := seeded.Sections[0].Chapters[0].ID
	require.NoError(t, store.UpsertChapterCompletion(ctx, 1, chapterID, models.ContentText))

	// Still the cached snapshot.
	f, err = facts.Load(ctx, 1, tree)
	require.NoError(t, err)
	assert.Empty(t, f.CompletedChapters)

	facts.Invalidate(ctx, 1, seeded.ID)
	f, err = facts.Load(ctx, 1, tree)
	require.NoError(t, err)
	assert.True(t, f.CompletedChapters[chapterID])
}

// pausingStore parks the first LoadFacts after it has read the database
// until release is closed.
type pausingStore struct {
	*progress.GormStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *pausingStore) LoadFacts(ctx context.Context, learnerID uint, chapterIDs, quizIDs []uint) (progress.Facts, error) {
	facts, err := s.GormStore.LoadFacts(ctx, learnerID, chapterIDs, quizIDs)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.loaded)
		<-s.release
	}
	return facts, err
}

func TestCachedFactsIgnoresLoadThatRacedInvalidate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	seeded := testutil.SeedCourse(t, db, "c", testutil.SectionSeed{Title: "S", Chapters: []string{"a"}})
	tree, err := content.LoadTree(ctx, content.NewGormStore(db), seeded.ID)
	require.NoError(t, err)

	store := &pausingStore{
		GormStore: progress.NewGormStore(db),
		loaded:    make(chan struct{}),
		release:   make(chan struct{}),
	}
	facts := progress.NewCachedFacts(store, testutil.NewMemoryCache(), time.Minute, testutil.Logger(t))
	chapterID := seeded.Sections[0].Chapters[0].ID

	done := make(chan progress.Facts)
	go func() {
		f, err := facts.Load(ctx, 1, tree)
		assert.NoError(t, err)
		done <- f
	}()
	<-store.loaded

	require.NoError(t, store.UpsertChapterCompletion(ctx, 1, chapterID, models.ContentText))
	facts.Invalidate(ctx, 1, seeded.ID)
	f, err := facts.Load(ctx, 1, tree)
	require.NoError(t, err)
	assert.True(t, f.CompletedChapters[chapterID])

	close(store.release)
	stale := <-done
	assert.False(t, stale.CompletedChapters[chapterID])

	f, err = facts.Load(ctx, 1, tree)
	require.NoError(t, err)
	assert.True(t, f.CompletedChapters[chapterID], "late snapshot must not replace the current one")
}

func TestCachedFactsInvalidateBumpsVersion(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	seeded := testutil.SeedCourse(t, db, "c", testutil.SectionSeed{Title: "S", Chapters: []string{"a"}})
	tree, err := content.LoadTree(ctx, content.NewGormStore(db), seeded.ID)
	require.NoError(t, err)

	mc := testutil.NewMemoryCache()
	facts := progress.NewCachedFacts(progress.NewGormStore(db), mc, time.Minute, testutil.Logger(t))

	_, err = facts.Load(ctx, 3, tree)
	require.NoError(t, err)
	assert.True(t, mc.Has(fmt.Sprintf("learnflow:facts:3:%d:0", seeded.ID)))

	facts.Invalidate(ctx, 3, seeded.ID)
	_, err = facts.Load(ctx, 3, tree)
	require.NoError(t, err)
	assert.True(t, mc.Has(fmt.Sprintf("learnflow:facts:3:%d:1", seeded.ID)))
}
