package database

import (
	"context"
	"fmt"
	"time"

	"ats-scoring/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize = 10
	defaultRedisMinIdle  = 2
)

// RedisClient backs the score cache. Pool settings fall back to 10 conns / 2 idle.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultRedisPoolSize
	}
	minIdle := cfg.MinIdleConns
	if minIdle <= 0 || minIdle > poolSize {
		minIdle = min(defaultRedisMinIdle, poolSize)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
	})

	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
