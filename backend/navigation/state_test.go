package navigation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorRoundTrip(t *testing.T) {
	states := []State{
		{View: ViewWelcome},
		{View: ViewSectionOverview, SectionID: 10},
		{View: ViewChapter, SectionID: 10, ChapterID: 2},
		{View: ViewQuiz, SectionID: 10},
	}
	for _, st := range states {
		encoded := st.Descriptor().Encode()
		values, err := url.ParseQuery(encoded)
		assert.NoError(t, err)
		assert.Equal(t, st, DeriveState(DescriptorFromValues(values)), encoded)
	}
}

func TestQuizWinsOverChapter(t *testing.T) {
	st := DeriveState(ParseDescriptor("10", "2", "1"))
	assert.Equal(t, State{View: ViewQuiz, SectionID: 10}, st)
	assert.True(t, st.IsQuiz())
}

func TestParseDescriptorIgnoresInvalidValues(t *testing.T) {
	assert.Equal(t, Descriptor{}, ParseDescriptor("abc", "-3", "true"))
	assert.Equal(t, Descriptor{Chapter: 4}, ParseDescriptor("0", "4", ""))
	assert.Equal(t, State{View: ViewWelcome}, DeriveState(ParseDescriptor("", "4", "1")))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "", Descriptor{}.Encode())
	assert.Equal(t, "chapter=2&section=10", Descriptor{Section: 10, Chapter: 2}.Encode())
	assert.Equal(t, "quiz=1&section=10", Descriptor{Section: 10, Quiz: true}.Encode())
}

func TestNormalize(t *testing.T) {
	tree := boundaryTree()

	assert.Equal(t, State{View: ViewWelcome}, State{View: ViewSectionOverview, SectionID: 999}.Normalize(tree))
	assert.Equal(t,
		State{View: ViewSectionOverview, SectionID: 20},
		State{View: ViewChapter, SectionID: 20, ChapterID: 1}.Normalize(tree))
	assert.Equal(t,
		State{View: ViewSectionOverview, SectionID: 20},
		State{View: ViewQuiz, SectionID: 20}.Normalize(tree))

	ok := State{View: ViewChapter, SectionID: 10, ChapterID: 2}
	assert.Equal(t, ok, ok.Normalize(tree))
	quiz := State{View: ViewQuiz, SectionID: 10}
	assert.Equal(t, quiz, quiz.Normalize(tree))
}
