// Package learning composes content, progress, navigation and completion
// into the read model and actions a learn page uses.
package learning

import (
	"context"
	"errors"
	"time"

	"learnflow/backend/completion"
	"learnflow/backend/content"
	"learnflow/backend/navigation"
	"learnflow/backend/progress"

	"go.uber.org/zap"
)

const defaultWriteTimeout = 3 * time.Second

type Config struct {
	Content      content.Store
	Quizzes      *content.QuizService
	Progress     progress.Store
	Facts        *progress.CachedFacts
	Recorder     *completion.Recorder
	Enrollments  completion.Enrollments
	WriteTimeout time.Duration
	Log          *zap.Logger
}

type Service struct {
	content      content.Store
	quizzes      *content.QuizService
	progress     progress.Store
	facts        *progress.CachedFacts
	recorder     *completion.Recorder
	enrollments  completion.Enrollments
	writeTimeout time.Duration
	log          *zap.Logger
}

func NewService(cfg Config) *Service {
	s := &Service{
		content:      cfg.Content,
		quizzes:      cfg.Quizzes,
		progress:     cfg.Progress,
		facts:        cfg.Facts,
		recorder:     cfg.Recorder,
		enrollments:  cfg.Enrollments,
		writeTimeout: cfg.WriteTimeout,
		log:          cfg.Log,
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// RenderState composes the page for a descriptor. Ids that do not resolve
// fall back to a default view; progress failures become warnings.
func (s *Service) RenderState(ctx context.Context, learnerID, courseID uint, d navigation.Descriptor) (*PageState, error) {
	tree, err := content.LoadTree(ctx, s.content, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	}

	page := &PageState{CourseID: courseID, Title: tree.Title}

	facts, factsErr := s.facts.Load(ctx, learnerID, tree)
	if factsErr != nil {
		s.log.Warn("rendering with partial progress",
			zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(factsErr))
		page.Warnings = append(page.Warnings, warnProgressLoad)
	}
	agg := progress.NewAggregator(tree, facts)

	st := navigation.DeriveState(d).Normalize(tree)
	resolver := navigation.NewResolver(tree, agg)

	page.State = st
	page.Descriptor = st.Descriptor().Encode()
	page.Sections = buildSections(tree, agg, st)
	page.CourseProgress = agg.CourseStatus()
	page.NoContent = tree.Empty()

	if next, ok := resolver.Next(st); ok {
		page.NextAction = &next
	}
	if i, ok := resolver.Current(st); ok {
		page.CurrentItem = s.currentItem(ctx, resolver.Items()[i], agg)
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if factsErr == nil {
		if _, err := s.progress.UpsertCourseProgress(wctx, learnerID, courseID, page.CourseProgress); err != nil {
			s.log.Warn("course progress write failed",
				zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
			page.Warnings = append(page.Warnings, warnProgressSave)
		}
	}
	if st.SectionID != 0 {
		if err := s.progress.TouchSectionAccess(wctx, learnerID, st.SectionID); err != nil {
			s.log.Warn("section access write failed",
				zap.Uint("learner_id", learnerID), zap.Uint("section_id", st.SectionID), zap.Error(err))
		}
	}
	return page, nil
}

func (s *Service) currentItem(ctx context.Context, it navigation.Item, agg *progress.Aggregator) *CurrentItem {
	cur := &CurrentItem{Item: it}
	if it.Kind == navigation.ItemQuiz {
		cur.Attempts = agg.QuizAttempts(it.SectionID)
		return cur
	}
	chapter, err := s.content.GetChapter(ctx, it.ChapterID)
	if err != nil {
		s.log.Warn("chapter body unavailable", zap.Uint("chapter_id", it.ChapterID), zap.Error(err))
		return cur
	}
	cur.Body = chapter.Body
	cur.VideoURL = chapter.VideoURL
	return cur
}

// OnChapterNext records the chapter as completed, best effort, and
// returns where the learner goes next. A FinishCourse action is returned
// as is; finishing needs OnFinishCourse after confirmation.
func (s *Service) OnChapterNext(ctx context.Context, learnerID, courseID, chapterID uint) (*NavigationTarget, error) {
	tree, err := content.LoadTree(ctx, s.content, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	}
	chapter, ok := tree.Chapter(chapterID)
	if !ok {
		return nil, ErrNotInCourse
	}

	target := &NavigationTarget{CourseID: courseID}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	_, err = s.recorder.RecordChapterComplete(wctx, learnerID, chapterID)
	cancel()
	switch {
	case err == nil:
		target.Recorded = true
	case errors.Is(err, ErrNotEnrolled):
		return nil, err
	default:
		s.log.Warn("chapter completion not saved",
			zap.Uint("learner_id", learnerID), zap.Uint("chapter_id", chapterID), zap.Error(err))
		target.Warnings = append(target.Warnings, warnProgressSave)
	}

	facts, err := s.facts.Load(ctx, learnerID, tree)
	if err != nil {
		s.log.Warn("resolving next with partial progress", zap.Uint("learner_id", learnerID), zap.Error(err))
	}
	resolver := navigation.NewResolver(tree, progress.NewAggregator(tree, facts))

	current := navigation.State{View: navigation.ViewChapter, SectionID: chapter.SectionID, ChapterID: chapter.ID}
	target.State = current
	if action, ok := resolver.Next(current); ok {
		target.Action = &action
		if action.Kind == navigation.ActionGoTo {
			target.State = action.Target.State()
		}
	}
	target.Descriptor = target.State.Descriptor().Encode()
	return target, nil
}

// OnFinishCourse records course completion and returns the terminal
// destination. The caller must have confirmed with the learner first.
func (s *Service) OnFinishCourse(ctx context.Context, learnerID, courseID uint) (*NavigationTarget, error) {
	if _, err := s.content.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	}

	target := &NavigationTarget{
		CourseID: courseID,
		State:    navigation.State{View: navigation.ViewWelcome},
		Exit:     true,
		Redirect: NotEnrolledRedirect,
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if _, err := s.recorder.RecordCourseComplete(wctx, learnerID, courseID); err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return nil, err
		}
		s.log.Warn("course completion not saved",
			zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
		target.Warnings = append(target.Warnings, warnCompletionSave)
	} else {
		target.Recorded = true
	}
	return target, nil
}

// CompleteChapter is the explicit completion event, e.g. at the end of a
// video.
func (s *Service) CompleteChapter(ctx context.Context, learnerID, courseID, chapterID uint) (completion.Result, []string, error) {
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return completion.Result{}, nil, err
	}
	if err := s.chapterInCourse(ctx, courseID, chapterID); err != nil {
		return completion.Result{}, nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	res, err := s.recorder.RecordChapterComplete(wctx, learnerID, chapterID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) || IsNotFound(err) {
			return completion.Result{}, nil, err
		}
		s.log.Warn("chapter completion not saved",
			zap.Uint("learner_id", learnerID), zap.Uint("chapter_id", chapterID), zap.Error(err))
		return completion.Result{CourseID: courseID, ChapterID: chapterID}, []string{warnProgressSave}, nil
	}
	return res, nil, nil
}

// SubmitQuiz stores an attempt. Answers are not scored.
func (s *Service) SubmitQuiz(ctx context.Context, learnerID, courseID, sectionID uint, answers string) (completion.Result, []string, error) {
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return completion.Result{}, nil, err
	}
	if err := s.sectionInCourse(ctx, courseID, sectionID); err != nil {
		return completion.Result{}, nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	res, err := s.recorder.RecordQuizAttempt(wctx, learnerID, sectionID, answers)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) || IsNotFound(err) {
			return completion.Result{}, nil, err
		}
		s.log.Warn("quiz attempt not saved",
			zap.Uint("learner_id", learnerID), zap.Uint("section_id", sectionID), zap.Error(err))
		return completion.Result{CourseID: courseID}, []string{warnQuizSave}, nil
	}
	return res, nil, nil
}

// FetchQuiz returns the quiz payload for a section of an enrolled course.
func (s *Service) FetchQuiz(ctx context.Context, learnerID, courseID, sectionID uint) (*content.QuizPayload, error) {
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	}
	if err := s.sectionInCourse(ctx, courseID, sectionID); err != nil {
		return nil, err
	}
	return s.quizzes.FetchQuiz(ctx, sectionID)
}

func (s *Service) sectionInCourse(ctx context.Context, courseID, sectionID uint) error {
	section, err := s.content.GetSection(ctx, sectionID)
	if err != nil {
		return err
	}
	if section.CourseID != courseID {
		return ErrNotInCourse
	}
	return nil
}

func (s *Service) chapterInCourse(ctx context.Context, courseID, chapterID uint) error {
	chapter, err := s.content.GetChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	return s.sectionInCourse(ctx, courseID, chapter.SectionID)
}

func (s *Service) requireEnrollment(ctx context.Context, learnerID, courseID uint) error {
	ok, err := s.enrollments.IsEnrolled(ctx, learnerID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}
