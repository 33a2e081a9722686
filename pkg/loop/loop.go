// Package loop provides the single-threaded cooperative executor that drives chains.
//
// Chains and their registry are not safe for concurrent use. A Loop serializes every
// access: timers, HTTP handlers and other goroutines hand work to the loop with Post
// or Do, and the loop runs it one task at a time on the goroutine that called Run.
package loop

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
)

// DefaultQueueSize is the initial capacity of the task queue.
const DefaultQueueSize = 64

// Loop is a FIFO task executor.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
	once sync.Once

	logger *slog.Logger
}

// Option configures the Loop.
type Option func(*Loop)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the initial capacity of the task queue. The queue grows as needed,
// so Post never blocks.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make([]func(), 0, n)
		}
	}
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:  make([]func(), 0, DefaultQueueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn. It is safe to call from any goroutine and returns false once the
// loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do queues fn and waits until it has run.
// It returns domain.ErrLoopClosed if the loop stops first, or the context error.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return domain.ErrLoopClosed
	}

	select {
	case <-ran:
		return nil
	case <-l.done:
		// The task may have been the last one the loop ran.
		select {
		case <-ran:
			return nil
		default:
			return domain.ErrLoopClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops the loop. Queued tasks are dropped and later posts are refused.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	dropped := len(l.queue)
	l.queue = nil
	l.mu.Unlock()

	l.once.Do(func() {
		close(l.done)
		if dropped > 0 {
			l.logger.Debug("loop closed with queued tasks", "dropped", dropped)
		}
	})
}

// Done is closed once the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes tasks until ctx is done or Close is called, then closes the loop.
// A task that panics with a *domain.ConfigError stops the loop and the error is
// returned; any other panic propagates.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer l.Close()
	l.logger.Debug("loop started")
	defer l.logger.Debug("loop stopped")

	for {
		for _, fn := range l.take() {
			if err := l.exec(fn); err != nil {
				l.logger.Error("chain configuration error", "error", err)
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// RunPending runs queued tasks on the calling goroutine until the queue is empty,
// including tasks posted while draining. It returns the number of tasks run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		batch := l.take()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
			n++
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	batch := l.queue
	l.queue = make([]func(), 0, cap(batch))
	return batch
}

func (l *Loop) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cfgErr, ok := domain.AsConfigError(r)
			if !ok {
				panic(r)
			}
			err = cfgErr
		}
	}()
	fn()
	return nil
}
