package background

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/logging"
)

const taskKeyPrefix = "sync:task:"

// RedisTaskStore implements TaskStore on redis so task results survive
// restarts. Entries expire on their own via TTL.
type RedisTaskStore struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisTaskStore connects to redis and returns a store, or an error when
// redis is unreachable so callers can fall back to the in-memory store.
func NewRedisTaskStore(cfg *config.Config) (*RedisTaskStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.DB = cfg.Redis.DB

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisTaskStore{
		client:  client,
		ttl:     cfg.BackgroundTasks.MaxTaskAge,
		timeout: cfg.Redis.Timeout,
	}, nil
}

// Store stores a task result with the configured TTL
func (s *RedisTaskStore) Store(ctx context.Context, result *TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, taskKeyPrefix+result.ProcessID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}
	return nil
}

// Get retrieves a task result by process ID
func (s *RedisTaskStore) Get(ctx context.Context, processID string) (*TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, taskKeyPrefix+processID).Bytes()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task result: %w", err)
	}

	var result TaskResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
	}
	return &result, nil
}

// Update overwrites a task result, keeping the TTL fresh
func (s *RedisTaskStore) Update(ctx context.Context, result *TaskResult) error {
	return s.Store(ctx, result)
}

// Delete removes a task result
func (s *RedisTaskStore) Delete(ctx context.Context, processID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Del(ctx, taskKeyPrefix+processID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete task result: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Cleanup is a no-op: redis expires entries through their TTL
func (s *RedisTaskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	return nil
}

// List returns all stored task results
func (s *RedisTaskStore) List(ctx context.Context) ([]*TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var results []*TaskResult
	iter := s.client.Scan(ctx, 0, taskKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var result TaskResult
		if err := json.Unmarshal(data, &result); err != nil {
			continue
		}
		results = append(results, &result)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list task results: %w", err)
	}

	return results, nil
}

// Ping checks redis connectivity
func (s *RedisTaskStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the redis connection
func (s *RedisTaskStore) Close() error {
	return s.client.Close()
}

// NewTaskStore returns a redis-backed task store when redis is reachable and
// falls back to the in-memory store otherwise.
func NewTaskStore(cfg *config.Config) TaskStore {
	logger := logging.GetGlobalLogger()

	store, err := NewRedisTaskStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory task store", map[string]interface{}{
			"error": err.Error(),
		})
		return NewInMemoryTaskStore()
	}

	logger.Info("Using redis task store", map[string]interface{}{
		"ttl": cfg.BackgroundTasks.MaxTaskAge.String(),
	})
	return store
}
