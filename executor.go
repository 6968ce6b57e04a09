package mainthread

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"go.uber.org/automaxprocs/maxprocs"
)

// Executor errors.
var (
	// ErrGoexit settles a job whose function exited via runtime.Goexit
	// instead of returning.
	ErrGoexit = errors.New("mainthread: job goroutine exited via runtime.Goexit")
)

// PanicError wraps a panic recovered from an executor job.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("mainthread: job panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error
// type. This enables use with [errors.Is] and [errors.As] through the
// cause chain; it returns nil for non-error panic values.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Executor runs asynchronous jobs on the Go runtime's multi-worker
// scheduler.
//
// Each job is a tracked goroutine; the runtime's own work-stealing
// scheduler spreads jobs across Workers() OS threads (GOMAXPROCS,
// container-quota aware). Jobs that block, including on [Sync] or
// [Future.Result], park without holding a thread.
//
// The zero value is not usable; construct with NewExecutor or install
// the process-wide instance with InitExecutor.
type Executor struct {
	logger   *logiface.Logger[logiface.Event]
	workers  int
	inflight atomic.Int64
}

// maxprocsOnce applies container CPU quotas to GOMAXPROCS at most once
// per process.
var maxprocsOnce sync.Once

// NewExecutor constructs an executor.
//
// The first construction in a process aligns GOMAXPROCS with the
// container CPU quota (automaxprocs); the worker count reported by
// Workers defaults to the resulting available parallelism.
func NewExecutor(opts ...ExecutorOption) (*Executor, error) {
	cfg, err := resolveExecutorOptions(opts)
	if err != nil {
		return nil, err
	}
	e := &Executor{logger: cfg.logger}
	maxprocsOnce.Do(func() {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			e.logger.Debug().Log(fmt.Sprintf(format, args...))
		}))
	})
	if cfg.workers > 0 {
		e.workers = cfg.workers
	} else {
		e.workers = runtime.GOMAXPROCS(0)
	}
	e.logger.Debug().
		Int(`workers`, e.workers).
		Log(`executor constructed`)
	return e, nil
}

// defaultExecutor holds the process-wide executor installed by
// InitExecutor. Steady-state access is a single atomic load.
var defaultExecutor atomic.Pointer[Executor]

// InitExecutor installs the process-wide executor, constructing it on
// first use, and returns it.
//
// InitExecutor is idempotent and safe to race from any number of
// goroutines: exactly one instance is ever installed (compare-and-swap
// on the slot), every caller receives that same instance, and only the
// winning caller's options take effect. There is no teardown; the
// executor lives as long as the process.
//
// InitExecutor panics if construction fails (an option rejected its
// value).
func InitExecutor(opts ...ExecutorOption) *Executor {
	if e := defaultExecutor.Load(); e != nil {
		return e
	}
	e, err := NewExecutor(opts...)
	if err != nil {
		panic(fmt.Errorf("mainthread: failed to construct executor: %w", err))
	}
	if defaultExecutor.CompareAndSwap(nil, e) {
		e.logger.Debug().Log(`executor installed`)
		return e
	}
	return defaultExecutor.Load()
}

// CurrentExecutor returns the executor installed by InitExecutor.
//
// It panics if InitExecutor has not been called: the executor is the
// process's scheduling root, and reaching for it before initialization
// is a programming error, not a recoverable condition.
func CurrentExecutor() *Executor {
	e := defaultExecutor.Load()
	if e == nil {
		panic("mainthread: executor not initialized: call InitExecutor before CurrentExecutor or BlockOn")
	}
	return e
}

// Workers returns the executor's worker parallelism.
func (e *Executor) Workers() int {
	return e.workers
}

// Inflight returns the number of jobs currently running.
func (e *Executor) Inflight() int64 {
	return e.inflight.Load()
}

// Job is the handle to a single executor job.
//
// A job settles exactly once; all waiters observe the same result.
type Job[R any] struct {
	value R
	err   error
	done  chan struct{}
}

// Done returns a channel closed once the job has settled.
func (j *Job[R]) Done() <-chan struct{} {
	return j.done
}

// Result blocks until the job settles, then returns its result.
func (j *Job[R]) Result() (R, error) {
	<-j.done
	return j.value, j.err
}

// Wait blocks until the job settles or ctx expires. The job keeps
// running if ctx expires first; a later Result observes its eventual
// settlement.
func (j *Job[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-j.done:
		return j.value, j.err
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-j.done:
		return j.value, j.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Go runs fn as a tracked job on e, returning a handle that settles with
// fn's result.
//
// It ensures:
//   - Goexit handling: if fn exits via runtime.Goexit the job settles
//     with ErrGoexit rather than hanging its waiters.
//   - Panic handling: a panic inside fn settles the job with a
//     PanicError wrapping the recovered value.
//   - Context propagation: ctx is passed through to fn; a ctx already
//     done at submission settles the job with ctx.Err() without
//     running fn.
func Go[R any](e *Executor, ctx context.Context, fn func(context.Context) (R, error)) *Job[R] {
	if ctx == nil {
		ctx = context.Background()
	}
	j := &Job[R]{done: make(chan struct{})}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Add(-1)
		defer close(j.done)

		// Completion flag to distinguish normal return from Goexit.
		completed := false
		defer func() {
			if completed {
				return
			}
			if r := recover(); r != nil {
				j.err = PanicError{Value: r}
				e.logger.Err().
					Any(`recovered`, r).
					Log(`executor job panicked`)
			} else {
				j.err = ErrGoexit
			}
		}()

		select {
		case <-ctx.Done():
			j.err = ctx.Err()
			completed = true
			return
		default:
		}

		j.value, j.err = fn(ctx)
		completed = true
	}()
	return j
}

// BlockOn runs fn on the process-wide executor and blocks the calling
// goroutine until it settles, returning fn's result.
//
// ctx is passed through to fn; BlockOn itself always waits for
// completion. It panics if InitExecutor has not been called. The caller
// is parked, not spun: the Go scheduler releases its thread while
// waiting, so blocking on dispatched work from inside another job cannot
// starve the executor.
func BlockOn[R any](ctx context.Context, fn func(context.Context) (R, error)) (R, error) {
	j := Go(CurrentExecutor(), ctx, fn)
	return j.Result()
}
