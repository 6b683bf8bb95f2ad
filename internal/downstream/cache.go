// Package downstream holds the best-effort consumers of a freshly persisted score.
package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-scoring/internal/models"
	"ats-scoring/internal/scoring"
)

const cacheKeyPrefix = "score:"

func CacheKey(applicationID string) string {
	return cacheKeyPrefix + applicationID
}

// ScoreCache warms Redis with each new score and serves reads ahead of Postgres.
// An entry that could be neither overwritten nor deleted is remembered as stale and
// reported as a miss until a later write or delete reaches Redis.
type ScoreCache struct {
	client redis.Cmdable
	ttl    time.Duration

	mu    sync.Mutex
	stale map[string]struct{}
}

// NewScoreCache stores entries with the given TTL; zero means no expiry.
func NewScoreCache(client redis.Cmdable, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl, stale: make(map[string]struct{})}
}

func (c *ScoreCache) markStale(applicationID string, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stale {
		c.stale[applicationID] = struct{}{}
		return
	}
	delete(c.stale, applicationID)
}

func (c *ScoreCache) isStale(applicationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stale[applicationID]
	return ok
}

func (c *ScoreCache) Name() string { return "cache" }

func (c *ScoreCache) Apply(ctx context.Context, _ *models.ApplicationAggregate, score *models.CandidateScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode cached score: %w", err)
	}
	key := CacheKey(score.ApplicationID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		// The previous entry must not outlive the score that replaced it.
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.markStale(score.ApplicationID, true)
		} else {
			c.markStale(score.ApplicationID, false)
		}
		return fmt.Errorf("cache score %s: %w", score.ApplicationID, err)
	}
	c.markStale(score.ApplicationID, false)
	return nil
}

func (c *ScoreCache) GetScore(ctx context.Context, applicationID string) (*models.CandidateScore, error) {
	if c.isStale(applicationID) {
		if err := c.client.Del(ctx, CacheKey(applicationID)).Err(); err == nil {
			c.markStale(applicationID, false)
		}
		return nil, scoring.ErrScoreNotFound
	}

	data, err := c.client.Get(ctx, CacheKey(applicationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, scoring.ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached score %s: %w", applicationID, err)
	}

	var score models.CandidateScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("decode cached score %s: %w", applicationID, err)
	}
	return &score, nil
}

// Invalidate drops a cached score, e.g. after an operator edits the row by hand.
func (c *ScoreCache) Invalidate(ctx context.Context, applicationIDs ...string) error {
	if len(applicationIDs) == 0 {
		return nil
	}
	keys := make([]string, len(applicationIDs))
	for i, id := range applicationIDs {
		keys[i] = CacheKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	for _, id := range applicationIDs {
		c.markStale(id, false)
	}
	return nil
}
