package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"easydrive/internal/config"
	"easydrive/internal/notify"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

// RedisQueue stores notification events in a Redis list so deliveries survive
// a process restart.
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

func NewRedisQueue(client *redis.Client, key, deadKey string) *RedisQueue {
	return &RedisQueue{
		client:  client,
		key:     key,
		deadKey: deadKey,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, event *notify.Event) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next event. It returns nil, nil when
// the queue stays empty.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*notify.Event, error) {
	if q.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue event: %w", err)
	}
	// BRPop returns [key, value]
	if len(vals) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply of %d values", len(vals))
	}

	var event notify.Event
	if err := json.Unmarshal([]byte(vals[1]), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

func (q *RedisQueue) DeadLetter(ctx context.Context, event *notify.Event) error {
	if q.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := q.client.LPush(ctx, q.deadKey, data).Err(); err != nil {
		return fmt.Errorf("failed to dead-letter event: %w", err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	return q.client.LLen(ctx, q.key).Result()
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
