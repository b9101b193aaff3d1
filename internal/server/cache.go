package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

const problemListKey = "mindtutor:problems:all"

// Cache is a read-through redis cache for the problem catalogue. The
// catalogue only changes on offline import, so a short TTL plus explicit
// invalidation is enough. A nil Cache is a valid always-miss cache.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger *log.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) GetProblems(ctx context.Context) ([]store.ProblemSummary, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, problemListKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("cache get failed: %v", err)
		}
		return nil, false
	}
	var problems []store.ProblemSummary
	if err := json.Unmarshal([]byte(val), &problems); err != nil {
		c.logger.Printf("cache entry corrupt, dropping: %v", err)
		c.Invalidate(ctx)
		return nil, false
	}
	return problems, true
}

func (c *Cache) SetProblems(ctx context.Context, problems []store.ProblemSummary) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(problems)
	if err != nil {
		c.logger.Printf("cache marshal failed: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, problemListKey, data, c.ttl).Err(); err != nil {
		c.logger.Printf("cache set failed: %v", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, problemListKey).Err(); err != nil {
		c.logger.Printf("cache invalidate failed: %v", err)
	}
}
