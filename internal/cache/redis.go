package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/utils"
)

// TitleGuard remembers generated titles so a batch does not repeat earlier ideas.
type TitleGuard interface {
	IsGenerated(ctx context.Context, title string) (bool, error)
	MarkGenerated(ctx context.Context, title string, ttl time.Duration) error
	ClearGenerated(ctx context.Context) error
	Close() error
}

type RedisClient struct {
	client *redis.Client
	prefix string
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisGuard(client, cfg.RedisPrefix), nil
}

// NewGuard returns a Redis backed guard when REDIS_URL is set, else an in-memory one.
func NewGuard(cfg *config.Config) (TitleGuard, error) {
	if cfg.RedisURL == "" {
		return NewMemoryGuard(), nil
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewRedisGuard wraps an existing client.
func NewRedisGuard(client *redis.Client, prefix string) *RedisClient {
	return &RedisClient{
		client: client,
		prefix: prefix + "title:",
	}
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) IsGenerated(ctx context.Context, title string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.prefix+utils.TitleHash(title)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return exists > 0, nil
}

func (r *RedisClient) MarkGenerated(ctx context.Context, title string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+utils.TitleHash(title), title, ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisClient) ClearGenerated(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}

	return nil
}
