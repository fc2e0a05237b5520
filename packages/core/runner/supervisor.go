package runner

import (
	"context"
	"sync"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
)

// Task is one supervised invocation.
type Task[T any] struct {
	cancel    context.CancelFunc
	done      chan struct{}
	value     T
	err       error
	mu        sync.Mutex
	cancelled bool
}

func (t *Task[T]) markCancelled() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.cancel()
}

func (t *Task[T]) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done is closed once the task's work has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Supervisor keeps at most one invocation in flight. Starting a new one
// cancels the previous invocation without waiting for it; whatever the
// old invocation eventually produces is discarded.
type Supervisor[T any] struct {
	mu      sync.Mutex
	current *Task[T]
}

func NewSupervisor[T any]() *Supervisor[T] {
	return &Supervisor[T]{}
}

// Run cancels the in-flight invocation, if any, and starts work.
func (s *Supervisor[T]) Run(ctx context.Context, work func(ctx context.Context) (T, error)) *Task[T] {
	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task[T]{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	previous := s.current
	s.current = task
	s.mu.Unlock()

	if previous != nil {
		previous.markCancelled()
	}

	go func() {
		defer close(task.done)
		defer cancel()
		task.value, task.err = work(taskCtx)
	}()
	return task
}

// Value waits for the current invocation. It fails with a Cancelled
// error when there is none, when it was cancelled, or when ctx ends
// first.
func (s *Supervisor[T]) Value(ctx context.Context) (T, error) {
	var zero T

	s.mu.Lock()
	task := s.current
	s.mu.Unlock()
	if task == nil {
		return zero, errs.Cancelled(nil)
	}

	select {
	case <-ctx.Done():
		return zero, errs.Cancelled(ctx.Err())
	case <-task.done:
	}

	if task.isCancelled() {
		return zero, errs.Cancelled(nil)
	}
	return task.value, task.err
}

// Cancel cancels the current invocation unconditionally.
func (s *Supervisor[T]) Cancel() {
	s.mu.Lock()
	task := s.current
	s.mu.Unlock()
	if task != nil {
		task.markCancelled()
	}
}
