// Package content loads a course's section/chapter/quiz hierarchy and
// exposes it as an immutable, effectively ordered ContentTree.
package content

import (
	"sort"

	"learnflow/backend/models"
)

type ChapterNode struct {
	ID         uint               `json:"id"`
	SectionID  uint               `json:"section_id"`
	Title      string             `json:"title"`
	Kind       models.ContentKind `json:"kind"`
	OrderIndex int                `json:"order_index"`
}

type QuizNode struct {
	ID        uint   `json:"id"`
	SectionID uint   `json:"section_id"`
	Title     string `json:"title"`
}

type SectionNode struct {
	ID         uint          `json:"id"`
	Title      string        `json:"title"`
	OrderIndex int           `json:"order_index"`
	Chapters   []ChapterNode `json:"chapters"`
	Quiz       *QuizNode     `json:"quiz,omitempty"`
}

func (s SectionNode) HasQuiz() bool { return s.Quiz != nil }

// Tree is built once per request and never mutated afterwards.
type Tree struct {
	CourseID uint
	Title    string
	Sections []SectionNode

	sectionIdx map[uint]int
	chapterIdx map[uint]chapterPos
}

type chapterPos = [2]int

// NewTree copies sections into a tree sorted by effective order:
// (order_index, id) for sections and, within each, for chapters.
func NewTree(course models.Course, sections []models.Section) *Tree {
	t := &Tree{
		CourseID:   course.ID,
		Title:      course.Title,
		Sections:   make([]SectionNode, 0, len(sections)),
		sectionIdx: make(map[uint]int, len(sections)),
		chapterIdx: make(map[uint]chapterPos),
	}

	for _, s := range sections {
		node := SectionNode{
			ID:         s.ID,
			Title:      s.Title,
			OrderIndex: s.OrderIndex,
			Chapters:   make([]ChapterNode, 0, len(s.Chapters)),
		}
		for _, ch := range s.Chapters {
			node.Chapters = append(node.Chapters, ChapterNode{
				ID:         ch.ID,
				SectionID:  s.ID,
				Title:      ch.Title,
				Kind:       models.ParseContentKind(string(ch.Kind)),
				OrderIndex: ch.OrderIndex,
			})
		}
		sort.SliceStable(node.Chapters, func(i, j int) bool {
			return effectiveLess(node.Chapters[i].OrderIndex, node.Chapters[i].ID, node.Chapters[j].OrderIndex, node.Chapters[j].ID)
		})
		if s.Quiz != nil && s.Quiz.ID != 0 {
			node.Quiz = &QuizNode{ID: s.Quiz.ID, SectionID: s.ID, Title: s.Quiz.Title}
		}
		t.Sections = append(t.Sections, node)
	}

	sort.SliceStable(t.Sections, func(i, j int) bool {
		return effectiveLess(t.Sections[i].OrderIndex, t.Sections[i].ID, t.Sections[j].OrderIndex, t.Sections[j].ID)
	})

	for si, s := range t.Sections {
		t.sectionIdx[s.ID] = si
		for ci, ch := range s.Chapters {
			t.chapterIdx[ch.ID] = chapterPos{si, ci}
		}
	}
	return t
}

func effectiveLess(aOrder int, aID uint, bOrder int, bID uint) bool {
	if aOrder != bOrder {
		return aOrder < bOrder
	}
	return aID < bID
}

func (t *Tree) Section(id uint) (SectionNode, bool) {
	i, ok := t.sectionIdx[id]
	if !ok {
		return SectionNode{}, false
	}
	return t.Sections[i], true
}

func (t *Tree) Chapter(id uint) (ChapterNode, bool) {
	pos, ok := t.chapterIdx[id]
	if !ok {
		return ChapterNode{}, false
	}
	return t.Sections[pos[0]].Chapters[pos[1]], true
}

// IsLastSection reports whether id is the final section in effective order.
func (t *Tree) IsLastSection(id uint) bool {
	return len(t.Sections) > 0 && t.Sections[len(t.Sections)-1].ID == id
}

func (t *Tree) Empty() bool {
	for _, s := range t.Sections {
		if len(s.Chapters) > 0 || s.HasQuiz() {
			return false
		}
	}
	return true
}

func (t *Tree) ChapterIDs() []uint {
	ids := make([]uint, 0, len(t.chapterIdx))
	for _, s := range t.Sections {
		for _, ch := range s.Chapters {
			ids = append(ids, ch.ID)
		}
	}
	return ids
}

func (t *Tree) QuizIDs() []uint {
	var ids []uint
	for _, s := range t.Sections {
		if s.Quiz != nil {
			ids = append(ids, s.Quiz.ID)
		}
	}
	return ids
}
