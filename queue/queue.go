package queue

import (
	"context"
	"errors"
	"time"
)

// Job is the unit of work handed from the dispatcher to a worker.
// It carries everything a worker needs so the hot path never re-reads
// the task record before starting.
type Job struct {
	TaskID     string `json:"task_id"`
	ClientName string `json:"client_name"`
	Category   string `json:"category"`
	URL        string `json:"url"`
}

// ErrFull is returned when an in-process queue is at capacity.
var ErrFull = errors.New("queue: full")

// Queue hands jobs from the submitting caller to the worker pool.
// Delivery is at-least-once; consumers must write results idempotently.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks up to the given duration for a job. It returns
	// (nil, nil) when the wait elapses with nothing queued.
	Dequeue(ctx context.Context, block time.Duration) (*Job, error)

	Close() error
}

// Memory is an in-process Queue used in tests and single-node deployments
// without Redis.
type Memory struct {
	jobs chan Job
}

// NewMemory creates an in-process queue holding up to capacity jobs.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Memory{jobs: make(chan Job, capacity)}
}

func (m *Memory) Enqueue(ctx context.Context, job Job) error {
	select {
	case m.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFull
	}
}

func (m *Memory) Dequeue(ctx context.Context, block time.Duration) (*Job, error) {
	timer := time.NewTimer(block)
	defer timer.Stop()

	select {
	case job := <-m.jobs:
		return &job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Memory) Close() error { return nil }
