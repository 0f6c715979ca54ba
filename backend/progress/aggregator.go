package progress

import (
	"learnflow/backend/content"
	"learnflow/backend/models"
)

type SectionStatus struct {
	SectionID         uint `json:"section_id"`
	CompletedChapters int  `json:"completed_chapters"`
	TotalChapters     int  `json:"total_chapters"`
	HasQuiz           bool `json:"has_quiz"`
	QuizCompleted     bool `json:"quiz_completed"`
	IsComplete        bool `json:"is_complete"`
}

type CourseStatus struct {
	CourseID       uint                    `json:"course_id"`
	CompletedItems int                     `json:"completed_items"`
	TotalItems     int                     `json:"total_items"`
	Percentage     int                     `json:"percentage"`
	Status         models.CompletionStatus `json:"status"`
}

// Aggregator derives completion for one learner over one course. It holds
// no state besides the tree and the facts it was built from.
type Aggregator struct {
	tree  *content.Tree
	facts Facts
}

func NewAggregator(tree *content.Tree, facts Facts) *Aggregator {
	if facts.CompletedChapters == nil || facts.QuizAttempts == nil {
		f := NewFacts()
		for k, v := range facts.CompletedChapters {
			f.CompletedChapters[k] = v
		}
		for k, v := range facts.QuizAttempts {
			f.QuizAttempts[k] = v
		}
		facts = f
	}
	return &Aggregator{tree: tree, facts: facts}
}

func (a *Aggregator) ChapterCompleted(chapterID uint) bool {
	return a.facts.CompletedChapters[chapterID]
}

// QuizCompleted is true once the learner has at least one attempt,
// regardless of score.
func (a *Aggregator) QuizCompleted(sectionID uint) bool {
	s, ok := a.tree.Section(sectionID)
	if !ok || !s.HasQuiz() {
		return false
	}
	return a.facts.QuizAttempts[s.Quiz.ID] >= 1
}

func (a *Aggregator) QuizAttempts(sectionID uint) int {
	s, ok := a.tree.Section(sectionID)
	if !ok || !s.HasQuiz() {
		return 0
	}
	return a.facts.QuizAttempts[s.Quiz.ID]
}

func (a *Aggregator) SectionStatus(sectionID uint) (SectionStatus, bool) {
	s, ok := a.tree.Section(sectionID)
	if !ok {
		return SectionStatus{}, false
	}
	return a.sectionStatus(s), true
}

func (a *Aggregator) sectionStatus(s content.SectionNode) SectionStatus {
	st := SectionStatus{
		SectionID:     s.ID,
		TotalChapters: len(s.Chapters),
		HasQuiz:       s.HasQuiz(),
	}
	for _, ch := range s.Chapters {
		if a.ChapterCompleted(ch.ID) {
			st.CompletedChapters++
		}
	}
	if st.HasQuiz {
		st.QuizCompleted = a.facts.QuizAttempts[s.Quiz.ID] >= 1
	}
	st.IsComplete = st.CompletedChapters == st.TotalChapters && (!st.HasQuiz || st.QuizCompleted)
	return st
}

// Sections returns the status of every section in effective order.
func (a *Aggregator) Sections() []SectionStatus {
	out := make([]SectionStatus, 0, len(a.tree.Sections))
	for _, s := range a.tree.Sections {
		out = append(out, a.sectionStatus(s))
	}
	return out
}

// CourseStatus counts each chapter as one item and each quiz-bearing
// section as one more.
func (a *Aggregator) CourseStatus() CourseStatus {
	st := CourseStatus{CourseID: a.tree.CourseID}
	for _, s := range a.tree.Sections {
		ss := a.sectionStatus(s)
		st.TotalItems += ss.TotalChapters
		st.CompletedItems += ss.CompletedChapters
		if ss.HasQuiz {
			st.TotalItems++
			if ss.QuizCompleted {
				st.CompletedItems++
			}
		}
	}
	st.Percentage = Percentage(st.CompletedItems, st.TotalItems)
	st.Status = StatusFor(st.Percentage)
	return st
}

// Percentage is round(100*completed/total), half up, and 0 when total is 0.
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

func StatusFor(percentage int) models.CompletionStatus {
	switch {
	case percentage >= 100:
		return models.StatusCompleted
	case percentage > 0:
		return models.StatusInProgress
	default:
		return models.StatusNotStarted
	}
}
