package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/queue"
	"github.com/use-agent/harvest/store"
)

// Session is one task's exclusive browser page: the extraction capability
// surface plus release. It must be closed on every exit path before the
// task's terminal status write.
type Session interface {
	extract.Page
	Close()
}

// Opener produces a session navigated to the target URL.
type Opener interface {
	Open(ctx context.Context, url string) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string) (Session, error)

func (f OpenerFunc) Open(ctx context.Context, url string) (Session, error) {
	return f(ctx, url)
}

// Sink is the secondary export destination. Sink failures are logged and
// never fail the task: the primary record already exists by the time the
// sink runs.
type Sink interface {
	Append(p *models.Product) error
}

// Config tunes the dispatcher.
type Config struct {
	// Workers is the worker pool size, which caps concurrent browser
	// sessions. default: 3
	Workers int

	// TaskTimeout is the hard deadline for one task execution.
	TaskTimeout time.Duration // default: 180s

	// PollInterval is how long a worker blocks on an empty queue before
	// re-checking for shutdown.
	PollInterval time.Duration // default: 2s
}

// Dispatcher accepts task submissions and executes them asynchronously on
// a fixed worker pool. Submission is synchronous (the task record exists
// when Submit returns) and execution is at-least-once with idempotent
// result writes.
type Dispatcher struct {
	store  store.Store
	queue  queue.Queue
	opener Opener
	engine *extract.Engine
	sink   Sink
	cfg    Config
}

// New creates a Dispatcher, applying defaults for unset config fields.
func New(st store.Store, q queue.Queue, opener Opener, engine *extract.Engine, sink Sink, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 180 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Dispatcher{
		store:  st,
		queue:  q,
		opener: opener,
		engine: engine,
		sink:   sink,
		cfg:    cfg,
	}
}

// Submit creates the task record (pending) and enqueues the job. The task
// is queryable the moment Submit returns; execution happens out-of-band.
func (d *Dispatcher) Submit(ctx context.Context, req models.SubmitTaskRequest) (*models.Task, error) {
	task := &models.Task{
		ID:         uuid.NewString(),
		ClientName: req.ClientName,
		Category:   req.Category,
		URL:        req.URL,
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("dispatch: create task: %w", err)
	}

	job := queue.Job{
		TaskID:     task.ID,
		ClientName: task.ClientName,
		Category:   task.Category,
		URL:        task.URL,
	}
	if err := d.queue.Enqueue(ctx, job); err != nil {
		// The record exists but no worker will ever see it; close it out
		// rather than leaving it pending forever.
		_ = d.store.MarkFailed(ctx, task.ID, "enqueue failed: "+err.Error())
		return nil, fmt.Errorf("dispatch: enqueue task: %w", err)
	}

	slog.Info("task submitted",
		"task_id", task.ID,
		"client", task.ClientName,
		"category", task.Category,
		"url", task.URL,
	)
	return task, nil
}

// Start launches the worker pool. Workers stop when ctx is cancelled and
// are waited on through wg.
func (d *Dispatcher) Start(ctx context.Context, wg *sync.WaitGroup) {
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.workerLoop(ctx, id)
		}(i + 1)
	}
	slog.Info("worker pool started", "workers", d.cfg.Workers)
}

func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker shutting down", "worker", id)
			return
		default:
		}

		job, err := d.queue.Dequeue(ctx, d.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("worker shutting down", "worker", id)
				return
			}
			slog.Error("dequeue failed", "worker", id, "error", err)
			continue
		}
		if job == nil {
			continue
		}

		d.Execute(ctx, *job)
	}
}

// Execute runs one job to its terminal status. No matter what happens
// inside, the task never stays in pending or running after Execute returns.
func (d *Dispatcher) Execute(ctx context.Context, job queue.Job) {
	// The claim: a task redelivered to a second worker loses here.
	if err := d.store.MarkRunning(ctx, job.TaskID); err != nil {
		slog.Warn("skipping task: claim failed",
			"task_id", job.TaskID, "error", err)
		return
	}

	slog.Info("task started", "task_id", job.TaskID, "url", job.URL)
	start := time.Now()

	taskCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	err := d.runTask(taskCtx, job)
	cancel()

	// Terminal writes get their own context: the task deadline expiring is
	// exactly when the failed status must still land.
	writeCtx, writeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer writeCancel()

	if err != nil {
		if markErr := d.store.MarkFailed(writeCtx, job.TaskID, err.Error()); markErr != nil {
			slog.Error("failed to record task failure",
				"task_id", job.TaskID, "error", markErr)
		}
		slog.Error("task failed",
			"task_id", job.TaskID,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	if markErr := d.store.MarkCompleted(writeCtx, job.TaskID); markErr != nil {
		slog.Error("failed to record task completion",
			"task_id", job.TaskID, "error", markErr)
		return
	}
	slog.Info("task completed", "task_id", job.TaskID, "duration", time.Since(start))
}

// runTask owns the browser session for the job's full duration. The session
// is released (deferred Close) before the caller's terminal status write,
// and a panic anywhere inside surfaces as an ordinary failure diagnostic.
func (d *Dispatcher) runTask(ctx context.Context, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during task execution: %v", r)
		}
	}()

	sess, err := d.opener.Open(ctx, job.URL)
	if err != nil {
		return err
	}
	defer sess.Close()

	product, err := d.engine.Extract(ctx, sess, extract.Target{
		TaskID:     job.TaskID,
		ClientName: job.ClientName,
		Category:   job.Category,
		URL:        job.URL,
	})
	if err != nil {
		return err
	}

	if err := d.store.InsertProduct(ctx, product); err != nil {
		return fmt.Errorf("persist product: %w", err)
	}

	if d.sink != nil {
		if sinkErr := d.sink.Append(product); sinkErr != nil {
			// Secondary sink only: the primary record is already stored.
			slog.Error("secondary sink write failed",
				"task_id", job.TaskID, "error", sinkErr)
		}
	}
	return nil
}
