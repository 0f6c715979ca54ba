package navigation

import "learnflow/backend/content"

type View string

const (
	ViewWelcome         View = "welcome"
	ViewSectionOverview View = "section_overview"
	ViewChapter         View = "chapter"
	ViewQuiz            View = "quiz"
)

// State is the full navigation state. It is always rebuilt from a
// Descriptor and never patched field by field.
type State struct {
	View      View `json:"view"`
	SectionID uint `json:"section_id,omitempty"`
	ChapterID uint `json:"chapter_id,omitempty"`
}

func (s State) IsQuiz() bool { return s.View == ViewQuiz }

// DeriveState maps a descriptor onto exactly one view. quiz wins over
// chapter, and nothing is selected without a section.
func DeriveState(d Descriptor) State {
	switch {
	case d.Section == 0:
		return State{View: ViewWelcome}
	case d.Quiz:
		return State{View: ViewQuiz, SectionID: d.Section}
	case d.Chapter != 0:
		return State{View: ViewChapter, SectionID: d.Section, ChapterID: d.Chapter}
	default:
		return State{View: ViewSectionOverview, SectionID: d.Section}
	}
}

func (s State) Descriptor() Descriptor {
	switch s.View {
	case ViewQuiz:
		return Descriptor{Section: s.SectionID, Quiz: true}
	case ViewChapter:
		return Descriptor{Section: s.SectionID, Chapter: s.ChapterID}
	case ViewSectionOverview:
		return Descriptor{Section: s.SectionID}
	default:
		return Descriptor{}
	}
}

// Normalize falls back when ids do not resolve in tree: an unknown
// section gives Welcome, and a chapter outside its section or a quiz on
// a section without one gives that section's overview.
func (s State) Normalize(tree *content.Tree) State {
	if s.View == ViewWelcome {
		return State{View: ViewWelcome}
	}
	section, ok := tree.Section(s.SectionID)
	if !ok {
		return State{View: ViewWelcome}
	}
	overview := State{View: ViewSectionOverview, SectionID: section.ID}

	switch s.View {
	case ViewQuiz:
		if !section.HasQuiz() {
			return overview
		}
	case ViewChapter:
		ch, ok := tree.Chapter(s.ChapterID)
		if !ok || ch.SectionID != section.ID {
			return overview
		}
	}
	return s
}
