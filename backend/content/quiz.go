package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnflow/backend/cache"

	"go.uber.org/zap"
)

// QuizPayload is what a quiz view displays. Answers are never included.
type QuizPayload struct {
	QuizID    uint           `json:"quiz_id"`
	SectionID uint           `json:"section_id"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Order    int      `json:"order"`
}

// QuizService serves quiz payloads through the cache.
type QuizService struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewQuizService(store Store, c cache.Cache, ttl time.Duration, log *zap.Logger) *QuizService {
	if c == nil {
		c = cache.Nop{}
	}
	return &QuizService{store: store, cache: c, ttl: ttl, log: log}
}

func quizKey(sectionID uint) string {
	return fmt.Sprintf("learnflow:quiz:section:%d", sectionID)
}

// FetchQuiz returns the quiz attached to sectionID.
func (s *QuizService) FetchQuiz(ctx context.Context, sectionID uint) (*QuizPayload, error) {
	var cached QuizPayload
	err := s.cache.Get(ctx, quizKey(sectionID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("quiz cache read failed", zap.Uint("section_id", sectionID), zap.Error(err))
	}

	quiz, err := s.store.GetQuiz(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	payload := &QuizPayload{
		QuizID:    quiz.ID,
		SectionID: quiz.SectionID,
		Title:     quiz.Title,
		Questions: make([]QuizQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		var options []string
		if len(q.Options) > 0 {
			if err := json.Unmarshal(q.Options, &options); err != nil {
				s.log.Warn("malformed quiz options", zap.Uint("question_id", q.ID), zap.Error(err))
			}
		}
		payload.Questions = append(payload.Questions, QuizQuestion{
			ID:       q.ID,
			Question: q.Question,
			Options:  options,
			Order:    q.SequenceOrder,
		})
	}

	if err := s.cache.Set(ctx, quizKey(sectionID), payload, s.ttl); err != nil {
		s.log.Warn("quiz cache write failed", zap.Uint("section_id", sectionID), zap.Error(err))
	}
	return payload, nil
}
