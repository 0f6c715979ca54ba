package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnflow/backend/cache"
	"learnflow/backend/content"

	"go.uber.org/zap"
)

// CachedFacts loads Facts through the cache. Only complete loads are
// cached; aggregates are always recomputed by the caller.
type CachedFacts struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedFacts(store Store, c cache.Cache, ttl time.Duration, log *zap.Logger) *CachedFacts {
	if c == nil {
		c = cache.Nop{}
	}
	return &CachedFacts{store: store, cache: c, ttl: ttl, log: log}
}

func factsKey(learnerID, courseID uint, version int64) string {
	return fmt.Sprintf("learnflow:facts:%d:%d:%d", learnerID, courseID, version)
}

func factsVersionKey(learnerID, courseID uint) string {
	return fmt.Sprintf("learnflow:facts:ver:%d:%d", learnerID, courseID)
}

// version reads the snapshot generation for (learner, course). ok is
// false when the generation is unknown and nothing may be cached.
func (f *CachedFacts) version(ctx context.Context, learnerID, courseID uint) (int64, bool) {
	var v int64
	err := f.cache.Get(ctx, factsVersionKey(learnerID, courseID), &v)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, cache.ErrMiss):
		return 0, true
	default:
		f.log.Warn("facts version read failed",
			zap.Uint("learner_id", learnerID), zap.Uint("course_id", courseID), zap.Error(err))
		return 0, false
	}
}

// Load returns cached facts or reads them from the store. The snapshot is
// stored under the generation read before the store query, so a load that
// raced an Invalidate writes to a key no later reader looks at.
func (f *CachedFacts) Load(ctx context.Context, learnerID uint, tree *content.Tree) (Facts, error) {
	version, cacheable := f.version(ctx, learnerID, tree.CourseID)
	key := factsKey(learnerID, tree.CourseID, version)

	if cacheable {
		var cached Facts
		err := f.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			f.log.Warn("facts cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	facts, err := f.store.LoadFacts(ctx, learnerID, tree.ChapterIDs(), tree.QuizIDs())
	if err != nil || !cacheable {
		return facts, err
	}
	if err := f.cache.Set(ctx, key, facts, f.ttl); err != nil {
		f.log.Warn("facts cache write failed", zap.String("key", key), zap.Error(err))
	}
	return facts, nil
}

// Invalidate must run after every write that changes the learner's facts.
// It moves the learner to a new snapshot generation.
func (f *CachedFacts) Invalidate(ctx context.Context, learnerID, courseID uint) {
	version, _ := f.version(ctx, learnerID, courseID)
	if _, err := f.cache.Incr(ctx, factsVersionKey(learnerID, courseID)); err != nil {
		f.log.Warn("facts cache invalidation failed",
			zap.Uint("learner_id", learnerID),
			zap.Uint("course_id", courseID),
			zap.Error(err))
		_ = f.cache.Delete(ctx, factsKey(learnerID, courseID, version))
	}
}
