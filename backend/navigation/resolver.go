package navigation

import "learnflow/backend/content"

type ActionKind string

const (
	ActionGoTo         ActionKind = "go_to"
	ActionFinishCourse ActionKind = "finish_course"
)

const (
	LabelNextQuiz     = "Next Quiz"
	LabelFinishModule = "Finish Module"
	LabelCompleteQuiz = "Complete Quiz First"
	labelNextSection  = "Next Section: "
	labelNext         = "Next: "
	labelStart        = "Start: "
)

// NextAction is what the "next" control does from the current item.
type NextAction struct {
	Kind    ActionKind `json:"kind"`
	Target  *Item      `json:"target,omitempty"`
	Label   string     `json:"label"`
	Enabled bool       `json:"enabled"`
}

// QuizCompletion reports whether the learner has attempted a section's quiz.
type QuizCompletion interface {
	QuizCompleted(sectionID uint) bool
}

type Resolver struct {
	tree    *content.Tree
	items   []Item
	quizzes QuizCompletion
}

func NewResolver(tree *content.Tree, quizzes QuizCompletion) *Resolver {
	return &Resolver{tree: tree, items: Linearize(tree), quizzes: quizzes}
}

func (r *Resolver) Items() []Item { return r.items }

func (r *Resolver) Locate(kind ItemKind, sectionID, chapterID uint) (int, bool) {
	return Locate(r.items, kind, sectionID, chapterID)
}

// Current locates the item a state is viewing.
func (r *Resolver) Current(st State) (int, bool) {
	switch st.View {
	case ViewChapter:
		return r.Locate(ItemChapter, st.SectionID, st.ChapterID)
	case ViewQuiz:
		return r.Locate(ItemQuiz, st.SectionID, 0)
	default:
		return -1, false
	}
}

// ResolveNext returns false only when index is out of range.
func (r *Resolver) ResolveNext(index int) (NextAction, bool) {
	if index < 0 || index >= len(r.items) {
		return NextAction{}, false
	}
	cur := r.items[index]

	if index == len(r.items)-1 || (cur.Kind == ItemQuiz && r.tree.IsLastSection(cur.SectionID)) {
		return r.finish(cur), true
	}

	next := r.items[index+1]
	action := NextAction{Kind: ActionGoTo, Target: &next, Enabled: true}
	switch {
	case next.Kind == ItemQuiz:
		action.Label = LabelNextQuiz
	case next.SectionID != cur.SectionID:
		s, _ := r.tree.Section(next.SectionID)
		action.Label = labelNextSection + s.Title
	default:
		action.Label = labelNext + next.Title
	}
	return action, true
}

// finish gates the terminal action on an unattempted quiz.
func (r *Resolver) finish(cur Item) NextAction {
	if cur.Kind == ItemQuiz && (r.quizzes == nil || !r.quizzes.QuizCompleted(cur.SectionID)) {
		return NextAction{Kind: ActionFinishCourse, Label: LabelCompleteQuiz}
	}
	return NextAction{Kind: ActionFinishCourse, Label: LabelFinishModule, Enabled: true}
}

// Next resolves from a state. With no item selected it points at the
// first item of the selected section, or of the course on Welcome.
func (r *Resolver) Next(st State) (NextAction, bool) {
	if i, ok := r.Current(st); ok {
		return r.ResolveNext(i)
	}
	if len(r.items) == 0 {
		return NextAction{}, false
	}

	start := 0
	if st.View == ViewSectionOverview {
		start = r.firstItemFrom(st.SectionID)
		if start < 0 {
			return NextAction{Kind: ActionFinishCourse, Label: LabelFinishModule, Enabled: true}, true
		}
	}
	target := r.items[start]
	return NextAction{Kind: ActionGoTo, Target: &target, Label: labelStart + target.Title, Enabled: true}, true
}

// firstItemFrom returns the first item of the section or of any section
// after it, or -1.
func (r *Resolver) firstItemFrom(sectionID uint) int {
	reached := false
	for _, s := range r.tree.Sections {
		if s.ID == sectionID {
			reached = true
		}
		if !reached {
			continue
		}
		for i, it := range r.items {
			if it.SectionID == s.ID {
				return i
			}
		}
	}
	return -1
}
