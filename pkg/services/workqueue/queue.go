package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
)

// ErrQueueClosed is returned by Submit after Shutdown.
var ErrQueueClosed = errors.New("work queue is shut down")

// Queue runs at most one task at a time in the background.
// A task submitted while another runs is rejected rather than queued,
// and the state of the most recent task stays observable until the next
// one starts.
type Queue struct {
	mu      sync.Mutex
	current *TaskState
	cancel  context.CancelFunc
	closed  bool

	// done is closed when the current task finishes
	done chan struct{}
	// wg tracks running goroutines
	wg sync.WaitGroup

	// Parent context for running tasks, cancelled on Shutdown
	ctx      context.Context
	shutdown context.CancelFunc

	// Callbacks
	onUpdate func(TaskSnapshot)

	logger *zap.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithOnUpdate sets a callback invoked after every status change.
// The callback runs outside the queue's lock but on the task goroutine,
// so it should be fast.
func WithOnUpdate(callback func(TaskSnapshot)) QueueOption {
	return func(q *Queue) {
		q.onUpdate = callback
	}
}

// New creates a new work queue with the given options.
func New(logger *zap.Logger, opts ...QueueOption) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)

	q := &Queue{
		done:     done,
		ctx:      ctx,
		shutdown: cancel,
		logger:   logger.Named("workqueue"),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Submit starts task in the background. It returns apperrors.ErrQueueBusy
// if a task is already running.
func (q *Queue) Submit(task Task) (TaskSnapshot, error) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return TaskSnapshot{}, ErrQueueClosed
	}
	if q.current != nil && q.current.GetStatus() == TaskStatusRunning {
		running := q.current.Task
		q.mu.Unlock()
		q.logger.Info("task rejected, another task is running",
			zap.String("task_name", task.Name()),
			zap.String("running_task_id", running.ID()))
		return TaskSnapshot{}, apperrors.ErrQueueBusy
	}

	ctx, cancel := context.WithCancel(q.ctx)
	state := NewTaskState(task)
	state.SetStatus(TaskStatusRunning)
	q.current = state
	q.cancel = cancel
	q.done = make(chan struct{})
	done := q.done

	q.wg.Add(1)
	q.mu.Unlock()

	q.logger.Info("starting task",
		zap.String("task_id", task.ID()),
		zap.String("task_name", task.Name()))

	snap := state.Snapshot()
	q.notify(snap)

	go q.runTask(ctx, cancel, state, done)

	return snap, nil
}

// runTask executes a task and records its terminal status.
func (q *Queue) runTask(ctx context.Context, cancel context.CancelFunc, ts *TaskState, done chan struct{}) {
	defer q.wg.Done()
	defer close(done)
	defer cancel()

	err := q.execute(ctx, ts.Task)

	status := TaskStatusSucceeded
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		status = TaskStatusCancelled
	default:
		status = TaskStatusFailed
	}
	ts.Finish(status, err)

	fields := []zap.Field{
		zap.String("task_id", ts.Task.ID()),
		zap.String("task_name", ts.Task.Name()),
		zap.String("status", string(status)),
	}
	if status == TaskStatusFailed {
		q.logger.Error("task failed", append(fields, zap.Error(err))...)
	} else {
		q.logger.Info("task finished", fields...)
	}

	q.notify(ts.Snapshot())
}

// execute runs the task, turning a panic into a failure.
func (q *Queue) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Execute(ctx)
}

func (q *Queue) notify(snap TaskSnapshot) {
	q.mu.Lock()
	callback := q.onUpdate
	q.mu.Unlock()
	if callback != nil {
		callback(snap)
	}
}

// Status returns a snapshot of the current or most recent task.
// Before any task has run the status is TaskStatusIdle.
func (q *Queue) Status() TaskSnapshot {
	q.mu.Lock()
	current := q.current
	q.mu.Unlock()

	if current == nil {
		return TaskSnapshot{Status: TaskStatusIdle}
	}
	return current.Snapshot()
}

// Cancel stops the running task. It returns apperrors.ErrNotFound if no
// task is running.
func (q *Queue) Cancel() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil || q.current.GetStatus() != TaskStatusRunning {
		return apperrors.ErrNotFound
	}

	q.logger.Info("cancelling task",
		zap.String("task_id", q.current.Task.ID()),
		zap.String("task_name", q.current.Task.Name()))
	q.cancel()
	return nil
}

// Wait blocks until the current task finishes or ctx is done.
// It returns the task's error, if any.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	done := q.done
	current := q.current
	q.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if current == nil {
		return nil
	}
	return current.GetError()
}

// Shutdown cancels any running task, rejects further submissions, and
// waits for the task goroutine to exit or ctx to be done.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.shutdown()

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
