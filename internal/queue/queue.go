// Package queue carries reconciliation run requests from the API to the
// worker over Redis, with an in-memory backend for dev and tests.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunRequest asks the worker to reconcile one class date.
type RunRequest struct {
	RunID string `json:"run_id"`
	// Date is the class date in YYYY-MM-DD, campus zone.
	Date string `json:"date"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, req RunRequest) error
	Consume(ctx context.Context) (<-chan RunRequest, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan RunRequest
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan RunRequest, size)}
}

// Publish enqueues a run request.
func (q *InMemory) Publish(ctx context.Context, req RunRequest) error {
	select {
	case q.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan RunRequest, error) {
	out := make(chan RunRequest)
	go func() {
		defer close(out)
		for {
			select {
			case req := <-q.ch:
				out <- req
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "attendance:runs"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a run request.
func (q *RedisQueue) Publish(ctx context.Context, req RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams run requests using BRPOP. Malformed payloads are dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan RunRequest, error) {
	out := make(chan RunRequest)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var req RunRequest
				if err := json.Unmarshal([]byte(res[1]), &req); err == nil {
					out <- req
				}
			}
		}
	}()
	return out, nil
}
