package content_test

import (
	"context"
	"testing"

	"learnflow/backend/content"
	"learnflow/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTreeFromStore(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	seeded := testutil.SeedCourse(t, db, "Logic",
		testutil.SectionSeed{Title: "B", Order: 2, Chapters: []string{"b1"}},
		testutil.SectionSeed{Title: "A", Order: 1, Chapters: []string{"a1", "a2"}, Quiz: true},
	)

	tree, err := content.LoadTree(ctx, content.NewGormStore(db), seeded.ID)
	require.NoError(t, err)

	require.Len(t, tree.Sections, 2)
	assert.Equal(t, "A", tree.Sections[0].Title)
	assert.Equal(t, "B", tree.Sections[1].Title)
	assert.Len(t, tree.Sections[0].Chapters, 2)
	require.True(t, tree.Sections[0].HasQuiz())
	assert.Equal(t, seeded.Sections[1].Quiz.ID, tree.Sections[0].Quiz.ID)
	assert.Equal(t, "Logic", tree.Title)
}

func TestStoreNotFound(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := content.NewGormStore(db)

	_, err := content.LoadTree(ctx, store, 404)
	assert.ErrorIs(t, err, content.ErrCourseNotFound)

	_, err = store.GetChapter(ctx, 404)
	assert.ErrorIs(t, err, content.ErrChapterNotFound)

	_, err = store.GetSection(ctx, 404)
	assert.ErrorIs(t, err, content.ErrSectionNotFound)

	seeded := testutil.SeedCourse(t, db, "x", testutil.SectionSeed{Title: "no quiz", Chapters: []string{"c"}})
	_, err = store.GetQuiz(ctx, seeded.Sections[0].ID)
	assert.ErrorIs(t, err, content.ErrQuizNotFound)
}
