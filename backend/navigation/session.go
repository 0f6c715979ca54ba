package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"learnflow/backend/content"
	"learnflow/backend/models"

	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 3 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

// QuizFetcher loads the quiz shown in QuizView.
type QuizFetcher interface {
	FetchQuiz(ctx context.Context, sectionID uint) (*content.QuizPayload, error)
}

// Confirmer asks the learner a yes/no question before finishing a course.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// StaticConfirmer answers every prompt the same way.
type StaticConfirmer bool

func (c StaticConfirmer) Confirm(context.Context, string) (bool, error) { return bool(c), nil }

// Recorder is the learner-scoped write path a session reports to.
type Recorder interface {
	RecordChapterComplete(ctx context.Context, chapterID uint) error
	RecordCourseComplete(ctx context.Context) error
}

type Outcome string

const (
	OutcomeMoved      Outcome = "moved"
	OutcomeGated      Outcome = "gated"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeExited     Outcome = "exited"
	OutcomeNoContent  Outcome = "no_content"
	// OutcomeSuperseded means another transition landed while the next
	// target was being resolved; that transition wins.
	OutcomeSuperseded Outcome = "superseded"
)

// QuizPanel is the quiz side of a QuizView. Loading is true until the
// fetch for the current selection finishes.
type QuizPanel struct {
	Loading bool                 `json:"loading"`
	Payload *content.QuizPayload `json:"payload,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type Snapshot struct {
	State    State     `json:"state"`
	Quiz     QuizPanel `json:"quiz"`
	Exited   bool      `json:"exited"`
	Warnings []string  `json:"warnings,omitempty"`
}

type SessionConfig struct {
	Tree         *content.Tree
	Quizzes      QuizFetcher
	Progress     QuizCompletion
	Recorder     Recorder
	Confirmer    Confirmer
	WriteTimeout time.Duration
	FetchTimeout time.Duration
	Log          *zap.Logger
}

// Session is one learner's live navigation over one course. Every
// transition replaces the whole state under the lock; no lock is held
// while fetching or writing.
type Session struct {
	tree     *content.Tree
	resolver *Resolver
	quizzes  QuizFetcher
	recorder Recorder
	confirm  Confirmer
	log      *zap.Logger

	writeTimeout time.Duration
	fetchTimeout time.Duration

	mu       sync.Mutex
	state    State
	quiz     QuizPanel
	gen      uint64
	exited   bool
	warnings []string

	inflight sync.WaitGroup
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		tree:         cfg.Tree,
		resolver:     NewResolver(cfg.Tree, cfg.Progress),
		quizzes:      cfg.Quizzes,
		recorder:     cfg.Recorder,
		confirm:      cfg.Confirmer,
		log:          cfg.Log,
		writeTimeout: cfg.WriteTimeout,
		fetchTimeout: cfg.FetchTimeout,
		state:        State{View: ViewWelcome},
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.confirm == nil {
		s.confirm = StaticConfirmer(false)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Restore rebuilds the state from a descriptor. It serves initial load
// and history navigation alike.
func (s *Session) Restore(d Descriptor) State {
	return s.apply(DeriveState(d))
}

func (s *Session) SelectSection(sectionID uint) State {
	return s.apply(State{View: ViewSectionOverview, SectionID: sectionID})
}

func (s *Session) SelectChapter(sectionID, chapterID uint) State {
	return s.apply(State{View: ViewChapter, SectionID: sectionID, ChapterID: chapterID})
}

// SelectQuiz switches to QuizView immediately; the quiz arrives later.
func (s *Session) SelectQuiz(sectionID uint) State {
	return s.apply(State{View: ViewQuiz, SectionID: sectionID})
}

func (s *Session) apply(next State) State {
	st, _ := s.transition(next, nil)
	return st
}

// transition replaces the state unless the session has exited or, with
// from set, the state has moved on since generation *from was read.
func (s *Session) transition(next State, from *uint64) (State, bool) {
	next = next.Normalize(s.tree)

	s.mu.Lock()
	if s.exited || (from != nil && s.gen != *from) {
		cur := s.state
		s.mu.Unlock()
		return cur, false
	}
	s.state = next
	s.gen++
	gen := s.gen
	if next.IsQuiz() {
		s.quiz = QuizPanel{Loading: true}
	} else {
		s.quiz = QuizPanel{}
	}
	s.mu.Unlock()

	if next.IsQuiz() {
		s.fetchQuiz(next.SectionID, gen)
	}
	return next, true
}

// fetchQuiz runs in the background; a result for an outdated selection is
// dropped.
func (s *Session) fetchQuiz(sectionID uint, gen uint64) {
	if s.quizzes == nil {
		s.mu.Lock()
		if s.gen == gen {
			s.quiz = QuizPanel{Error: "quiz unavailable"}
		}
		s.mu.Unlock()
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		payload, err := s.quizzes.FetchQuiz(ctx, sectionID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return
		}
		if err != nil {
			s.log.Warn("quiz fetch failed", zap.Uint("section_id", sectionID), zap.Error(err))
			s.quiz = QuizPanel{Error: "Failed to load quiz"}
			return
		}
		s.quiz = QuizPanel{Payload: payload}
	}()
}

// GoNext follows the resolver from the current state. Leaving a non-video
// chapter reports its completion without waiting for the write.
func (s *Session) GoNext(ctx context.Context) Outcome {
	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		return OutcomeExited
	}
	cur, gen := s.state, s.gen
	s.mu.Unlock()

	action, ok := s.resolver.Next(cur)
	if !ok {
		return OutcomeNoContent
	}

	switch action.Kind {
	case ActionGoTo:
		if _, ok := s.transition(action.Target.State(), &gen); !ok {
			return OutcomeSuperseded
		}
		s.leaveChapter(cur)
		return OutcomeMoved
	case ActionFinishCourse:
		if !action.Enabled {
			return OutcomeGated
		}
		confirmed, err := s.confirm.Confirm(ctx, fmt.Sprintf("Finish %s?", s.tree.Title))
		if err != nil {
			s.log.Warn("finish confirmation failed", zap.Uint("course_id", s.tree.CourseID), zap.Error(err))
			return OutcomeCancelled
		}
		if !confirmed {
			return OutcomeCancelled
		}
		s.leaveChapter(cur)
		s.finishCourse(ctx)
		return OutcomeExited
	}
	return OutcomeNoContent
}

func (s *Session) leaveChapter(cur State) {
	if cur.View != ViewChapter || s.recorder == nil {
		return
	}
	ch, ok := s.tree.Chapter(cur.ChapterID)
	if !ok || ch.Kind == models.ContentVideo {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()
		if err := s.recorder.RecordChapterComplete(ctx, ch.ID); err != nil {
			s.log.Warn("chapter progress not saved", zap.Uint("chapter_id", ch.ID), zap.Error(err))
			s.warn("Your progress on this chapter could not be saved")
		}
	}()
}

func (s *Session) finishCourse(ctx context.Context) {
	if s.recorder != nil {
		wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		err := s.recorder.RecordCourseComplete(wctx)
		cancel()
		if err != nil {
			s.log.Warn("course completion not saved", zap.Uint("course_id", s.tree.CourseID), zap.Error(err))
			s.warn("Course completion could not be saved")
		}
	}

	s.mu.Lock()
	s.exited = true
	s.gen++
	s.quiz = QuizPanel{}
	s.mu.Unlock()
}

func (s *Session) warn(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Quiz: s.quiz, Exited: s.exited}
	if len(s.warnings) > 0 {
		snap.Warnings = append([]string(nil), s.warnings...)
	}
	return snap
}

func (s *Session) Descriptor() Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Descriptor()
}

// NextAction resolves the next control for the current state.
func (s *Session) NextAction() (NextAction, bool) {
	s.mu.Lock()
	cur := s.state
	s.mu.Unlock()
	return s.resolver.Next(cur)
}

// Wait blocks until background fetches and writes have finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}
