package mainthread

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned by Run if the loop is already running.
	ErrLoopAlreadyRunning = errors.New("mainthread: loop is already running")

	// ErrLoopStopped is returned for operations against a loop that is
	// stopping or has stopped.
	ErrLoopStopped = errors.New("mainthread: loop has stopped")

	// ErrNilTask is returned by Submit when given a nil function.
	ErrNilTask = errors.New("mainthread: nil task")
)

// Loop is a FIFO work loop pinned to a single OS thread.
//
// Loop stands in for a platform main-thread dispatch queue: any goroutine
// may submit work, and a single goroutine (conventionally the main
// goroutine, see [MainLoop] and [Run]) drains it in submission order by
// calling [Loop.Run]. Run locks the draining goroutine to its OS thread,
// so queued work observes stable thread identity for the life of the loop.
//
// Submission policy by state:
//   - StateNew: accepted and buffered; runs once Run starts draining.
//   - StateRunning: accepted.
//   - StateStopping, StateStopped: rejected with ErrLoopStopped.
//
// Work accepted before the stop signal executes always runs: the loop
// drains every queued item before its terminal transition, including
// items submitted after Shutdown was requested but before the stop
// signal reached the loop goroutine.
type Loop struct {
	logger *logiface.Logger[logiface.Event]

	// mu guards queue and serializes submission against the
	// Running→Stopping transition; see submit and stopItem.
	mu    sync.Mutex
	queue workQueue

	state loopState

	// wake signals the loop out of its idle block; wakePending dedupes
	// signals so concurrent submitters pay at most one channel send.
	wake        chan struct{}
	wakePending atomic.Bool

	loopGoroutineID atomic.Uint64
	itemsRun        atomic.Uint64

	stopOnce     sync.Once
	finalizeOnce sync.Once
	done         chan struct{}
}

// NewLoop creates a new loop in StateNew. The loop does nothing until
// some goroutine calls Run.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Loop{
		logger: cfg.logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}, nil
}

// Run drains the loop on the calling goroutine until the loop stops.
//
// The calling goroutine is locked to its OS thread for the duration;
// queued work runs on that thread, in submission order. Run returns nil
// after an orderly stop, ErrLoopAlreadyRunning if another Run owns the
// loop, and ErrLoopStopped if the loop already stopped. Cancelling ctx
// requests a stop, with the same drain semantics as Shutdown.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.TryTransition(StateNew, StateRunning) {
		if l.state.Load() == StateRunning {
			return ErrLoopAlreadyRunning
		}
		return ErrLoopStopped
	}

	// The loop goroutine is the thread-affinity anchor: pin it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.loopGoroutineID.Store(getGoroutineID())
	defer l.loopGoroutineID.Store(0)

	// Terminal transition is guaranteed even if a queued item kills the
	// goroutine via runtime.Goexit.
	defer l.finalize()

	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Done() != nil {
		stopWatch := make(chan struct{})
		defer close(stopWatch)
		go func() {
			select {
			case <-ctx.Done():
				l.requestStop()
			case <-stopWatch:
			case <-l.done:
			}
		}()
	}

	l.logger.Debug().
		Uint64(`goroutine`, l.loopGoroutineID.Load()).
		Log(`main-thread loop started`)

	for {
		for {
			item, ok := l.pop()
			if !ok {
				break
			}
			l.runItem(item)
		}
		if l.state.Load() == StateStopping {
			// Drained empty after the stop signal; no further
			// submissions can be accepted.
			break
		}
		<-l.wake
		l.wakePending.Store(false)
	}

	return nil
}

// Submit enqueues fn to run on the loop goroutine.
//
// Safe from any goroutine, including the loop's own (the item runs later
// in the same drain, preserving FIFO order). A nil fn is rejected with
// ErrNilTask; submissions to a stopping or stopped loop are rejected
// with ErrLoopStopped. Accepted work always runs.
//
// Submit is fire-and-forget: panics inside fn are recovered and logged
// by the loop. Use [Async] or [Sync] to observe results and panics.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	return l.submit(workItem{run: fn})
}

func (l *Loop) submit(item workItem) error {
	l.mu.Lock()
	if !l.state.CanAcceptWork() {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.queue.Push(item)
	l.mu.Unlock()
	l.submitWakeup()
	return nil
}

// submitWakeup nudges the loop out of its idle block.
func (l *Loop) submitWakeup() {
	if l.wakePending.CompareAndSwap(false, true) {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

// pop removes the oldest queued item.
func (l *Loop) pop() (workItem, bool) {
	l.mu.Lock()
	item, ok := l.queue.Pop()
	l.mu.Unlock()
	return item, ok
}

// runItem executes a single queued item, containing panics to the item.
func (l *Loop) runItem(item workItem) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().
				Any(`recovered`, r).
				Log(`main-thread task panicked`)
		}
	}()
	l.itemsRun.Add(1)
	item.run()
}

// Shutdown requests an orderly stop and blocks until the loop has fully
// stopped or ctx expires (the stop continues in the background on ctx
// expiry).
//
// The stop request travels through the loop's own queue, so the stop is
// observed on the loop goroutine and every item accepted before it
// executes still runs. Shutdown is idempotent and safe from any
// goroutine except the loop's own (the loop goroutine would deadlock
// waiting on itself; use ctx cancellation or Submit the stop from
// another goroutine instead).
//
// Shutdown before Run transitions the loop directly to StateStopped;
// items buffered in StateNew are dropped, failing their futures.
func (l *Loop) Shutdown(ctx context.Context) error {
	if l.state.TryTransition(StateNew, StateStopping) {
		l.finalize()
		return nil
	}
	l.requestStop()
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestStop enqueues the stop signal at most once. The state
// transition itself executes on the loop goroutine: only the loop stops
// the loop.
func (l *Loop) requestStop() {
	l.stopOnce.Do(func() {
		// A rejected submission means a stop is already in progress.
		_ = l.submit(workItem{run: l.stopItem})
	})
}

// stopItem runs on the loop goroutine and marks the loop stopping. The
// transition is taken under mu so submissions serialize against it:
// everything accepted before it still drains, everything after is
// rejected.
func (l *Loop) stopItem() {
	l.mu.Lock()
	l.state.TryTransition(StateRunning, StateStopping)
	l.mu.Unlock()
	l.logger.Debug().Log(`main-thread loop stop signal observed`)
}

// finalize performs the terminal transition, dropping any items still
// queued. Under normal operation the queue is already empty; abnormal
// loop exit and Shutdown-before-Run can leave items behind, and their
// abort hooks fail the associated futures instead of leaving awaiters
// parked forever.
func (l *Loop) finalize() {
	l.finalizeOnce.Do(func() {
		var aborts []func()
		var dropped int
		l.mu.Lock()
		l.state.Store(StateStopped)
		for {
			item, ok := l.queue.Pop()
			if !ok {
				break
			}
			dropped++
			if item.abort != nil {
				aborts = append(aborts, item.abort)
			}
		}
		l.mu.Unlock()
		for _, abort := range aborts {
			abort()
		}
		l.logger.Debug().
			Uint64(`items_run`, l.itemsRun.Load()).
			Int(`items_dropped`, dropped).
			Log(`main-thread loop stopped`)
		close(l.done)
	})
}

// Done returns a channel closed once the loop has fully stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	return l.state.Load()
}

// Len returns the number of queued items not yet executed.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Length()
}

// isLoopGoroutine checks if we're on the loop goroutine.
func (l *Loop) isLoopGoroutine() bool {
	id := l.loopGoroutineID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}
