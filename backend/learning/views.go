package learning

import (
	"learnflow/backend/content"
	"learnflow/backend/models"
	"learnflow/backend/navigation"
	"learnflow/backend/progress"
)

type ChapterView struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Kind      models.ContentKind `json:"kind"`
	Completed bool               `json:"completed"`
	Active    bool               `json:"active"`
}

type QuizView struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Active    bool   `json:"active"`
}

type SectionView struct {
	ID       uint                   `json:"id"`
	Title    string                 `json:"title"`
	Active   bool                   `json:"active"`
	Status   progress.SectionStatus `json:"status"`
	Chapters []ChapterView          `json:"chapters"`
	Quiz     *QuizView              `json:"quiz,omitempty"`
}

// CurrentItem is the item being viewed. Body and VideoURL are only set
// for chapters; Attempts only for quizzes.
type CurrentItem struct {
	navigation.Item
	Body     string `json:"body,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// PageState is everything a learn page needs, composed in one read.
type PageState struct {
	CourseID       uint                   `json:"course_id"`
	Title          string                 `json:"title"`
	State          navigation.State       `json:"state"`
	Descriptor     string                 `json:"descriptor"`
	Sections       []SectionView          `json:"sections"`
	CurrentItem    *CurrentItem           `json:"current_item,omitempty"`
	NextAction     *navigation.NextAction `json:"next_action,omitempty"`
	CourseProgress progress.CourseStatus  `json:"course_progress"`
	NoContent      bool                   `json:"no_content"`
	Warnings       []string               `json:"-"`
}

// NavigationTarget tells the caller where to go after an action.
type NavigationTarget struct {
	CourseID   uint                   `json:"course_id"`
	State      navigation.State       `json:"state"`
	Descriptor string                 `json:"descriptor"`
	Action     *navigation.NextAction `json:"action,omitempty"`
	Exit       bool                   `json:"exit"`
	Redirect   string                 `json:"redirect,omitempty"`
	Recorded   bool                   `json:"recorded"`
	Warnings   []string               `json:"-"`
}

func buildSections(tree *content.Tree, agg *progress.Aggregator, st navigation.State) []SectionView {
	views := make([]SectionView, 0, len(tree.Sections))
	for _, s := range tree.Sections {
		status, _ := agg.SectionStatus(s.ID)
		sv := SectionView{
			ID:       s.ID,
			Title:    s.Title,
			Active:   st.SectionID == s.ID,
			Status:   status,
			Chapters: make([]ChapterView, 0, len(s.Chapters)),
		}
		for _, ch := range s.Chapters {
			sv.Chapters = append(sv.Chapters, ChapterView{
				ID:        ch.ID,
				Title:     ch.Title,
				Kind:      ch.Kind,
				Completed: agg.ChapterCompleted(ch.ID),
				Active:    st.View == navigation.ViewChapter && st.ChapterID == ch.ID,
			})
		}
		if s.HasQuiz() {
			sv.Quiz = &QuizView{
				ID:        s.Quiz.ID,
				Title:     s.Quiz.Title,
				Completed: status.QuizCompleted,
				Active:    st.IsQuiz() && st.SectionID == s.ID,
			}
		}
		views = append(views, sv)
	}
	return views
}
