package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const problemKeyPrefix = "problem:"

// ProblemCache is a read-path cache for problem records. Problems change
// rarely compared to how often submissions read them, so a short TTL plus
// invalidation on update is enough.
type ProblemCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProblemCache(rdb *redis.Client, ttl time.Duration) *ProblemCache {
	return &ProblemCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached problem, or nil if absent. Cache errors are
// logged and treated as misses; the caller falls through to the database.
func (c *ProblemCache) Get(ctx context.Context, problemID string) *model.Problem {
	data, err := c.rdb.Get(ctx, problemKeyPrefix+problemID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("problem cache get failed", zap.String("problem_id", problemID), zap.Error(err))
		}
		return nil
	}
	var p model.Problem
	if err := json.Unmarshal(data, &p); err != nil {
		logger.L().Warn("problem cache entry corrupt, dropping", zap.String("problem_id", problemID), zap.Error(err))
		c.Invalidate(ctx, problemID)
		return nil
	}
	return &p
}

func (c *ProblemCache) Set(ctx context.Context, p *model.Problem) {
	data, err := json.Marshal(p)
	if err != nil {
		logger.L().Warn("problem cache marshal failed", zap.String("problem_id", p.ID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, problemKeyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		logger.L().Warn("problem cache set failed", zap.String("problem_id", p.ID), zap.Error(err))
	}
}

func (c *ProblemCache) Invalidate(ctx context.Context, problemID string) {
	if err := c.rdb.Del(ctx, problemKeyPrefix+problemID).Err(); err != nil {
		logger.L().Warn("problem cache invalidate failed", zap.String("problem_id", problemID), zap.Error(err))
	}
}
