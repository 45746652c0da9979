package workqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
)

// testTask is a simple task for testing.
type testTask struct {
	BaseTask
	executeFunc func(ctx context.Context) error
}

func newTestTask(name string, fn func(ctx context.Context) error) *testTask {
	return &testTask{
		BaseTask:    NewBaseTask(name),
		executeFunc: fn,
	}
}

func (t *testTask) Execute(ctx context.Context) error {
	if t.executeFunc != nil {
		return t.executeFunc(ctx)
	}
	return nil
}

// reportingTask exposes a counter through Report.
type reportingTask struct {
	testTask
	mu    sync.Mutex
	count int
}

func (t *reportingTask) Report() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestQueue_StatusIdleBeforeFirstTask(t *testing.T) {
	q := New(zap.NewNop())

	snap := q.Status()
	if snap.Status != TaskStatusIdle {
		t.Errorf("expected idle, got %s", snap.Status)
	}
	if snap.ID != "" {
		t.Errorf("expected no task id, got %q", snap.ID)
	}

	if err := q.Wait(waitCtx(t)); err != nil {
		t.Errorf("Wait on idle queue should return immediately, got %v", err)
	}
}

func TestQueue_SubmitAndSucceed(t *testing.T) {
	q := New(zap.NewNop())

	executed := false
	task := newTestTask("test-task", func(ctx context.Context) error {
		executed = true
		return nil
	})

	snap, err := q.Submit(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != TaskStatusRunning {
		t.Errorf("expected running snapshot from Submit, got %s", snap.Status)
	}

	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !executed {
		t.Error("task was not executed")
	}

	final := q.Status()
	if final.Status != TaskStatusSucceeded {
		t.Errorf("expected succeeded, got %s", final.Status)
	}
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("expected start and completion timestamps")
	}
	if final.ID != task.ID() {
		t.Errorf("expected task id %s, got %s", task.ID(), final.ID)
	}
}

func TestQueue_TaskFailure(t *testing.T) {
	q := New(zap.NewNop())

	expectedErr := errors.New("task failed")
	_, err := q.Submit(newTestTask("failing-task", func(ctx context.Context) error {
		return expectedErr
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = q.Wait(waitCtx(t))
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}

	snap := q.Status()
	if snap.Status != TaskStatusFailed {
		t.Errorf("expected failed, got %s", snap.Status)
	}
	if snap.Error != "task failed" {
		t.Errorf("expected error message in snapshot, got %q", snap.Error)
	}
}

func TestQueue_PanicBecomesFailure(t *testing.T) {
	q := New(zap.NewNop())

	_, err := q.Submit(newTestTask("panicking-task", func(ctx context.Context) error {
		panic("boom")
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := q.Wait(waitCtx(t)); err == nil {
		t.Fatal("expected error from panicking task")
	}
	if got := q.Status().Status; got != TaskStatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestQueue_RejectsWhileRunning(t *testing.T) {
	q := New(zap.NewNop())

	release := make(chan struct{})
	_, err := q.Submit(newTestTask("blocking", func(ctx context.Context) error {
		<-release
		return nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = q.Submit(newTestTask("second", nil))
	if !errors.Is(err, apperrors.ErrQueueBusy) {
		t.Errorf("expected ErrQueueBusy, got %v", err)
	}

	close(release)
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A new task may start once the previous one finished.
	if _, err := q.Submit(newTestTask("third", nil)); err != nil {
		t.Errorf("expected submit after completion to succeed, got %v", err)
	}
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.Status().Name; got != "third" {
		t.Errorf("expected status of latest task, got %q", got)
	}
}

func TestQueue_Cancel(t *testing.T) {
	q := New(zap.NewNop())

	if err := q.Cancel(); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound with nothing running, got %v", err)
	}

	started := make(chan struct{})
	_, err := q.Submit(newTestTask("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started

	if err := q.Cancel(); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}

	err = q.Wait(waitCtx(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := q.Status().Status; got != TaskStatusCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}
}

func TestQueue_ReportInSnapshot(t *testing.T) {
	q := New(zap.NewNop())

	task := &reportingTask{}
	task.testTask = *newTestTask("reporting", func(ctx context.Context) error {
		task.mu.Lock()
		task.count = 3
		task.mu.Unlock()
		return nil
	})

	if _, err := q.Submit(task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := q.Status().Result; got != 3 {
		t.Errorf("expected result 3, got %v", got)
	}
}

func TestQueue_OnUpdate(t *testing.T) {
	var (
		mu       sync.Mutex
		statuses []TaskStatus
	)
	q := New(zap.NewNop(), WithOnUpdate(func(s TaskSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s.Status)
	}))

	if _, err := q.Submit(newTestTask("observed", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Wait(waitCtx(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) != 2 || statuses[0] != TaskStatusRunning || statuses[1] != TaskStatusSucceeded {
		t.Errorf("expected [running succeeded], got %v", statuses)
	}
}

func TestQueue_Shutdown(t *testing.T) {
	q := New(zap.NewNop())

	_, err := q.Submit(newTestTask("long", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := q.Shutdown(waitCtx(t)); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
	if got := q.Status().Status; got != TaskStatusCancelled {
		t.Errorf("expected cancelled after shutdown, got %s", got)
	}

	if _, err := q.Submit(newTestTask("late", nil)); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}
