// Package navigation flattens a course into navigable items, resolves the
// next action from any position and keeps a learner's navigation state in
// sync with its deep-link descriptor.
package navigation

import "learnflow/backend/content"

type ItemKind string

const (
	ItemChapter ItemKind = "chapter"
	ItemQuiz    ItemKind = "quiz"
)

// Item is one navigable unit. ChapterID is zero for quizzes.
type Item struct {
	Kind      ItemKind `json:"kind"`
	SectionID uint     `json:"section_id"`
	ChapterID uint     `json:"chapter_id,omitempty"`
	Title     string   `json:"title"`
}

// State is the view an item opens.
func (it Item) State() State {
	if it.Kind == ItemQuiz {
		return State{View: ViewQuiz, SectionID: it.SectionID}
	}
	return State{View: ViewChapter, SectionID: it.SectionID, ChapterID: it.ChapterID}
}

// Linearize walks sections in effective order, emitting each section's
// chapters followed by its quiz. Empty sections contribute nothing.
func Linearize(tree *content.Tree) []Item {
	var items []Item
	for _, s := range tree.Sections {
		for _, ch := range s.Chapters {
			items = append(items, Item{Kind: ItemChapter, SectionID: s.ID, ChapterID: ch.ID, Title: ch.Title})
		}
		if s.HasQuiz() {
			items = append(items, Item{Kind: ItemQuiz, SectionID: s.ID, Title: s.Quiz.Title})
		}
	}
	return items
}

// Locate finds the viewed item. Chapters match by chapter id, quizzes by
// section id.
func Locate(items []Item, kind ItemKind, sectionID, chapterID uint) (int, bool) {
	for i, it := range items {
		switch kind {
		case ItemChapter:
			if it.Kind == ItemChapter && it.ChapterID == chapterID {
				return i, true
			}
		case ItemQuiz:
			if it.Kind == ItemQuiz && it.SectionID == sectionID {
				return i, true
			}
		}
	}
	return -1, false
}
