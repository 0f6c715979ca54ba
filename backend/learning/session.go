package learning

import (
	"context"

	"learnflow/backend/content"
	"learnflow/backend/navigation"
	"learnflow/backend/progress"

	"go.uber.org/zap"
)

// NewSession opens a live navigation session for an enrolled learner,
// restored from d.
func (s *Service) NewSession(ctx context.Context, learnerID, courseID uint, d navigation.Descriptor, confirm navigation.Confirmer) (*navigation.Session, error) {
	tree, err := content.LoadTree(ctx, s.content, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	}

	session := navigation.NewSession(navigation.SessionConfig{
		Tree:         tree,
		Quizzes:      s.quizzes,
		Progress:     &liveQuizProgress{svc: s, learnerID: learnerID, tree: tree},
		Recorder:     &learnerRecorder{svc: s, learnerID: learnerID, courseID: courseID},
		Confirmer:    confirm,
		WriteTimeout: s.writeTimeout,
		Log:          s.log.With(zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID)),
	})
	session.Restore(d)
	return session, nil
}

// liveQuizProgress reads attempts through the fact cache on every call so
// the gate opens as soon as an attempt is recorded.
type liveQuizProgress struct {
	svc       *Service
	learnerID uint
	tree      *content.Tree
}

func (p *liveQuizProgress) QuizCompleted(sectionID uint) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.svc.writeTimeout)
	defer cancel()
	facts, err := p.svc.facts.Load(ctx, p.learnerID, p.tree)
	if err != nil {
		p.svc.log.Warn("quiz gate read partial progress", zap.Uint("section_id", sectionID), zap.Error(err))
	}
	return progress.NewAggregator(p.tree, facts).QuizCompleted(sectionID)
}

type learnerRecorder struct {
	svc       *Service
	learnerID uint
	courseID  uint
}

func (r *learnerRecorder) RecordChapterComplete(ctx context.Context, chapterID uint) error {
	_, err := r.svc.recorder.RecordChapterComplete(ctx, r.learnerID, chapterID)
	return err
}

func (r *learnerRecorder) RecordCourseComplete(ctx context.Context) error {
	_, err := r.svc.recorder.RecordCourseComplete(ctx, r.learnerID, r.courseID)
	return err
}
