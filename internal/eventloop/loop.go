// Package eventloop provides a single-threaded cooperative executor.
//
// A Loop owns a FIFO queue of tasks. Any goroutine may queue work with
// Defer; exactly one goroutine consumes the queue with Tick, Drain, Run or
// RunUntil. Tasks queued while a tick is running are held for the next
// tick, which is what "deferred to the next scheduling tick" means for the
// code running on the loop.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStopped is returned by Do when the loop stops before the task ran.
var ErrStopped = errors.New("event loop stopped")

// Loop is a single-threaded task queue.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	logger *slog.Logger
}

// New creates an empty loop. A nil logger discards output.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Defer queues fn for the next tick. It is safe for concurrent use.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Tick runs the tasks that were queued before the call and returns how many
// ran.
func (l *Loop) Tick() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.run(fn)
	}
	return len(batch)
}

// Drain ticks until the queue is empty and returns the total number of
// tasks run.
func (l *Loop) Drain() int {
	total := 0
	for {
		n := l.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// RunUntil consumes the queue until done reports true or ctx is done.
// done is checked after every tick on the loop goroutine. A nil done runs
// until ctx is done.
func (l *Loop) RunUntil(ctx context.Context, done func() bool) error {
	for {
		l.Tick()
		if done != nil && done() {
			return nil
		}
		if l.Len() > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run consumes the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	err := l.RunUntil(ctx, nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Do queues fn and blocks until it has run on the loop goroutine or ctx is
// done. It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Defer(func() {
		defer close(ran)
		fn()
	})

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrStopped, ctx.Err())
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}
