package content

import (
	"testing"

	"learnflow/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func chapter(id uint, order int, title string) models.Chapter {
	return models.Chapter{Model: gorm.Model{ID: id}, Title: title, OrderIndex: order, Kind: models.ContentText}
}

func TestNewTreeEffectiveOrder(t *testing.T) {
	sections := []models.Section{
		{Model: gorm.Model{ID: 9}, Title: "late", OrderIndex: 2},
		{
			Model: gorm.Model{ID: 7}, Title: "tie-high-id", OrderIndex: 1,
			Chapters: []models.Chapter{chapter(30, 1, "c30")},
		},
		{
			Model: gorm.Model{ID: 3}, Title: "tie-low-id", OrderIndex: 1,
			Chapters: []models.Chapter{
				chapter(12, 2, "c12"),
				chapter(11, 2, "c11"),
				chapter(15, 1, "c15"),
			},
			Quiz: &models.Quiz{Model: gorm.Model{ID: 100}, SectionID: 3, Title: "q"},
		},
	}

	tree := NewTree(models.Course{Model: gorm.Model{ID: 1}, Title: "c"}, sections)

	require.Len(t, tree.Sections, 3)
	assert.Equal(t, []uint{3, 7, 9}, []uint{tree.Sections[0].ID, tree.Sections[1].ID, tree.Sections[2].ID})

	var order []uint
	for _, ch := range tree.Sections[0].Chapters {
		order = append(order, ch.ID)
	}
	assert.Equal(t, []uint{15, 11, 12}, order)
	assert.True(t, tree.Sections[0].HasQuiz())
	assert.False(t, tree.Sections[1].HasQuiz())

	assert.Equal(t, []uint{15, 11, 12, 30}, tree.ChapterIDs())
	assert.Equal(t, []uint{100}, tree.QuizIDs())
	assert.True(t, tree.IsLastSection(9))
	assert.False(t, tree.IsLastSection(3))
}

func TestTreeLookups(t *testing.T) {
	tree := NewTree(models.Course{Model: gorm.Model{ID: 1}}, []models.Section{
		{Model: gorm.Model{ID: 1}, Title: "A", Chapters: []models.Chapter{chapter(5, 1, "five")}},
	})

	ch, ok := tree.Chapter(5)
	require.True(t, ok)
	assert.Equal(t, uint(1), ch.SectionID)
	assert.Equal(t, "five", ch.Title)

	_, ok = tree.Chapter(6)
	assert.False(t, ok)

	s, ok := tree.Section(1)
	require.True(t, ok)
	assert.Equal(t, "A", s.Title)

	_, ok = tree.Section(2)
	assert.False(t, ok)
}

func TestTreeEmpty(t *testing.T) {
	assert.True(t, NewTree(models.Course{}, nil).Empty())
	assert.True(t, NewTree(models.Course{}, []models.Section{{Model: gorm.Model{ID: 1}}}).Empty())
	assert.False(t, NewTree(models.Course{}, []models.Section{
		{Model: gorm.Model{ID: 1}, Quiz: &models.Quiz{Model: gorm.Model{ID: 2}}},
	}).Empty())
	assert.False(t, NewTree(models.Course{}, nil).IsLastSection(0))
}

func TestUnknownKindBecomesOther(t *testing.T) {
	tree := NewTree(models.Course{}, []models.Section{{
		Model:    gorm.Model{ID: 1},
		Chapters: []models.Chapter{{Model: gorm.Model{ID: 2}, Kind: "podcast"}},
	}})
	ch, _ := tree.Chapter(2)
	assert.Equal(t, models.ContentOther, ch.Kind)
}
