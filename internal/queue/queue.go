package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Task names one dispatched simulation job and its prepared workspace.
type Task struct {
	JobID         string `json:"job_id"`
	WorkspacePath string `json:"workspace_path"`
}

// Queue is a Redis-list work queue. Delivery is at-least-once: a worker that
// crashes after popping loses the message's in-flight copy, but submission
// retries and redeliveries are tolerated by the worker's claim gate.
type Queue struct {
	client *redis.Client
	key    string
}

// New wraps a Redis client and list key.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = "simulation:jobs"
	}
	return &Queue{client: client, key: key}
}

// Enqueue pushes the task onto the work list.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task. The second return value is
// false when the wait expired with nothing available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, bool, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("dequeue task: %w", err)
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected blpop reply of length %d", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, false, fmt.Errorf("decode task: %w", err)
	}
	return &task, true, nil
}

// Len reports the number of waiting tasks.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
