package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// JobQueue runs cleaning jobs on a fixed pool of workers. Jobs run
// independently; no table state is shared between them.
type JobQueue struct {
	jobs     chan *Job
	workers  int
	store    JobStore
	runner   *Runner
	logger   *slog.Logger
	group    *errgroup.Group
	shutdown chan struct{}
}

// NewJobQueue creates a queue backed by the given store and runner.
func NewJobQueue(workers int, store JobStore, runner *Runner, logger *slog.Logger) *JobQueue {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobQueue{
		jobs:     make(chan *Job, workers*2),
		workers:  workers,
		store:    store,
		runner:   runner,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
	}
}

// Start launches the worker pool.
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers))
	q.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		workerID := i
		q.group.Go(func() error {
			q.worker(ctx, workerID)
			return nil
		})
	}
}

// Stop shuts the queue down, waiting up to timeout for in-flight jobs.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		if q.group != nil {
			q.group.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue schedules a pending job for processing. The job must already be
// registered in the store.
func (q *JobQueue) Enqueue(job *Job) error {
	if status := job.GetStatus(); status != JobStatusPending {
		return fmt.Errorf("job %s cannot be enqueued (status: %s)", job.ID, status)
	}
	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("file", job.FileName))
		return nil
	default:
		job.Fail(fmt.Errorf("job queue is full"))
		return fmt.Errorf("job queue is full")
	}
}

func (q *JobQueue) worker(ctx context.Context, workerID int) {
	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			// cancelled while waiting in the queue
			if job.Cancelled() {
				logger.Info("skipping cancelled job", slog.String("job_id", job.ID))
				continue
			}
			q.runner.Run(ctx, job)
		}
	}
}
