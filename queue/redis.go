package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Queue backed by a Redis list (LPUSH producer, BRPOP consumer),
// so multiple service instances can share one job stream.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, addr, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: ping redis: %w", err)
	}
	return &Redis{client: client, key: key}, nil
}

func (r *Redis) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	return r.client.LPush(ctx, r.key, data).Err()
}

func (r *Redis) Dequeue(ctx context.Context, block time.Duration) (*Job, error) {
	result, err := r.client.BRPop(ctx, block, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("queue: unexpected BRPOP result: %v", result)
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue: unmarshal job: %w", err)
	}
	return &job, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
