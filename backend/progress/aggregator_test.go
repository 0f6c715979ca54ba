package progress

import (
	"testing"

	"learnflow/backend/content"
	"learnflow/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapters(sectionID uint, ids ...uint) []models.Chapter {
	out := make([]models.Chapter, 0, len(ids))
	for i, id := range ids {
		ch := models.Chapter{SectionID: sectionID, Title: "ch", OrderIndex: i + 1}
		ch.ID = id
		out = append(out, ch)
	}
	return out
}

// Section A: chapters 1,2,3 + quiz 100. Section B: chapters 4,5.
func sampleTree() *content.Tree {
	course := models.Course{Title: "Ethics"}
	course.ID = 1

	a := models.Section{CourseID: 1, Title: "A", OrderIndex: 1, Chapters: chapters(10, 1, 2, 3)}
	a.ID = 10
	a.Quiz = &models.Quiz{SectionID: 10}
	a.Quiz.ID = 100

	b := models.Section{CourseID: 1, Title: "B", OrderIndex: 2, Chapters: chapters(20, 4, 5)}
	b.ID = 20

	return content.NewTree(course, []models.Section{b, a})
}

func TestCourseStatusPercentage(t *testing.T) {
	facts := NewFacts()
	for _, id := range []uint{1, 2, 3, 4} {
		facts.CompletedChapters[id] = true
	}
	facts.QuizAttempts[100] = 1

	st := NewAggregator(sampleTree(), facts).CourseStatus()
	assert.Equal(t, 5, st.CompletedItems)
	assert.Equal(t, 6, st.TotalItems)
	assert.Equal(t, 83, st.Percentage)
	assert.Equal(t, models.StatusInProgress, st.Status)
}

func TestCourseStatusBoundaries(t *testing.T) {
	tree := sampleTree()

	st := NewAggregator(tree, Facts{}).CourseStatus()
	assert.Equal(t, 0, st.Percentage)
	assert.Equal(t, models.StatusNotStarted, st.Status)

	all := NewFacts()
	for _, id := range tree.ChapterIDs() {
		all.CompletedChapters[id] = true
	}
	all.QuizAttempts[100] = 3
	st = NewAggregator(tree, all).CourseStatus()
	assert.Equal(t, 100, st.Percentage)
	assert.Equal(t, models.StatusCompleted, st.Status)
}

func TestEmptyCourseHasZeroPercentage(t *testing.T) {
	course := models.Course{}
	course.ID = 9
	st := NewAggregator(content.NewTree(course, nil), NewFacts()).CourseStatus()
	assert.Equal(t, 0, st.TotalItems)
	assert.Equal(t, 0, st.Percentage)
	assert.Equal(t, models.StatusNotStarted, st.Status)
}

func TestSectionRequiresQuizAttempt(t *testing.T) {
	facts := NewFacts()
	for _, id := range []uint{1, 2, 3} {
		facts.CompletedChapters[id] = true
	}

	agg := NewAggregator(sampleTree(), facts)
	st, ok := agg.SectionStatus(10)
	require.True(t, ok)
	assert.Equal(t, 3, st.CompletedChapters)
	assert.True(t, st.HasQuiz)
	assert.False(t, st.QuizCompleted)
	assert.False(t, st.IsComplete)

	facts.QuizAttempts[100] = 1
	st, _ = NewAggregator(sampleTree(), facts).SectionStatus(10)
	assert.True(t, st.IsComplete)
}

func TestSectionWithoutQuiz(t *testing.T) {
	facts := NewFacts()
	facts.CompletedChapters[4] = true
	facts.CompletedChapters[5] = true

	agg := NewAggregator(sampleTree(), facts)
	st, ok := agg.SectionStatus(20)
	require.True(t, ok)
	assert.True(t, st.IsComplete)
	assert.False(t, agg.QuizCompleted(20))

	_, ok = agg.SectionStatus(999)
	assert.False(t, ok)
}

func TestSectionsFollowEffectiveOrder(t *testing.T) {
	secs := NewAggregator(sampleTree(), NewFacts()).Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, uint(10), secs[0].SectionID)
	assert.Equal(t, uint(20), secs[1].SectionID)
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 6, 83},
		{6, 6, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percentage(c.completed, c.total), "%d/%d", c.completed, c.total)
	}
}
