package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Config configures the change-feed queue.
type Config struct {
	Addr          string
	Password      string
	DB            int
	Key           string
	DeadLetterKey string
	BlockTimeout  time.Duration
}

// Queue wraps a Redis list used as the interaction change feed. Producers
// LPUSH, the consumer BRPOP, so events are handled in arrival order.
type Queue struct {
	client        *redis.Client
	key           string
	deadLetterKey string
	blockTimeout  time.Duration
}

// NewQueue creates a Redis list queue.
func NewQueue(cfg Config) (*Queue, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Queue{
		client:        client,
		key:           cfg.Key,
		deadLetterKey: cfg.DeadLetterKey,
		blockTimeout:  cfg.BlockTimeout,
	}, nil
}

// Pop pops one message, returning nil when the block timeout elapses.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	res, err := q.client.BRPop(ctx, q.blockTimeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Push enqueues one message.
func (q *Queue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", q.key, err)
	}
	return nil
}

// DeadLetter parks a payload whose evaluation failed. It is a no-op when no
// dead-letter key is configured.
func (q *Queue) DeadLetter(ctx context.Context, payload []byte) error {
	if q.deadLetterKey == "" {
		return nil
	}
	if err := q.client.LPush(ctx, q.deadLetterKey, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", q.deadLetterKey, err)
	}
	return nil
}

// Close closes the queue.
func (q *Queue) Close() error {
	return q.client.Close()
}
