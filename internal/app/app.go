// Package app connects the datastores and builds the scoring orchestrator
// shared by the worker manager and scorectl.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ats-scoring/internal/common/aws"
	"ats-scoring/internal/common/config"
	"ats-scoring/internal/common/database"
	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/common/validation"
	"ats-scoring/internal/downstream"
	"ats-scoring/internal/scoring"
	"ats-scoring/internal/store"
)

// Dependencies holds the live clients. Elasticsearch and SNS are nil when not configured.
type Dependencies struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	SNS           *aws.SNSClient
}

// RetryWithBackoff runs operation up to maxRetries times, doubling the delay after each failure.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(operationName+" failed, retrying", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, i+1, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Connect opens every configured datastore. Postgres and Redis are required.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	err := RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		deps.Postgres = pg
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", nil)

	deps.Redis = database.NewRedis(cfg.Database.Redis)
	err = RetryWithBackoff(ctx, func() error {
		return deps.Redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		deps.Close()
		return nil, err
	}
	log.Info("Redis connected", nil)

	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			deps.Close()
			return nil, err
		}
		// The index is best-effort; an unreachable cluster only logs.
		if err := es.Ping(ctx); err != nil {
			log.Warn("Elasticsearch not reachable, scores will be indexed once it is", map[string]interface{}{
				"error": err.Error(),
			})
		}
		deps.Elasticsearch = es
	}

	if cfg.Events.Enabled() {
		sns, err := aws.NewSNSClient(ctx, cfg.Events.Region)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.SNS = sns
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}

// SideEffects returns the downstream updates run after each persisted score, cache first.
func SideEffects(cfg *config.Config, deps *Dependencies, cache *downstream.ScoreCache) []scoring.SideEffect {
	effects := []scoring.SideEffect{cache}
	if deps.Elasticsearch != nil {
		effects = append(effects, downstream.NewScoreIndexer(deps.Elasticsearch.Client, cfg.Database.Elasticsearch.Index))
	}
	if deps.SNS != nil {
		effects = append(effects, downstream.NewScoreEvents(deps.SNS, cfg.Events.TopicARN))
	}
	return effects
}

// NewOrchestrator wires the Postgres store, the Redis read-through cache and the side effects.
func NewOrchestrator(cfg *config.Config, deps *Dependencies, log logger.Logger) (*scoring.Orchestrator, error) {
	weights, err := scoring.NewWeights(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	// One cache instance both writes and reads, so a failed write is seen by the read path.
	cache := downstream.NewScoreCache(deps.Redis.Client, cfg.Scoring.CacheTTLDuration())
	return scoring.NewOrchestrator(store.NewPostgresStore(deps.Postgres.DB), scoring.Options{
		Weights:          weights,
		Version:          cfg.Scoring.Version,
		PipelineStatuses: cfg.Scoring.PipelineStatuses,
		SideEffects:      SideEffects(cfg, deps, cache),
		Cache:            cache,
		Validate:         validation.ValidateCriteria,
		NewID:            uuid.NewString,
	}, log), nil
}
