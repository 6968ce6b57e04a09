package mainthread

import (
	"context"
	"sync"
)

// dispatchDroppedMsg diagnoses a work item dropped before completion.
// Awaiting such a future is a lifecycle bug in the caller, not a
// recoverable condition, hence the panic in Result and Wait.
const dispatchDroppedMsg = "mainthread: dispatch failed: the loop dropped the task before completion; this likely indicates the main-thread loop is not running or the process is shutting down"

// outcome carries the result of a dispatched closure: either its value
// or a panic recovered from it.
type outcome[R any] struct {
	value    R
	panicVal any
	panicked bool
}

// Future is the receiving half of a dispatched work item.
//
// A Future settles exactly once: with the closure's value, with a panic
// recovered from the closure (re-raised at the await point), or as a
// delivery failure if the loop dropped the item without executing it.
//
// Futures are safe for concurrent use, and awaiting more than once is
// fine; every await observes the same settlement. Discarding a Future
// without awaiting it is also fine: the dispatched work still runs, only
// its result is dropped.
type Future[R any] struct {
	ch   chan outcome[R] // buffered cap 1; at most one send, ever
	done chan struct{}   // closed once settled or delivery failed
	once sync.Once
	out  outcome[R]
	ok   bool
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{
		ch:   make(chan outcome[R], 1),
		done: make(chan struct{}),
	}
}

// settle delivers the closure's outcome. Producer side; at most once per
// future, mutually exclusive with fail.
func (f *Future[R]) settle(out outcome[R]) {
	f.ch <- out
	close(f.done)
}

// fail marks delivery failure without an outcome. Producer side.
func (f *Future[R]) fail() {
	close(f.done)
}

// resolve caches the settlement once done is closed. The channel read
// can be non-blocking: closing done happens after any send, so an empty
// channel here means the item was dropped.
func (f *Future[R]) resolve() {
	f.once.Do(func() {
		<-f.done
		select {
		case out := <-f.ch:
			f.out = out
			f.ok = true
		default:
		}
	})
}

// Done returns a channel closed once the future has settled (including
// by delivery failure). Select on it to race the future against
// timeouts or cancellation; the future carries no native timeout.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled, without blocking.
func (f *Future[R]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result blocks until the future settles and returns the dispatched
// closure's value.
//
// If the closure panicked, Result re-raises that panic on the calling
// goroutine. If the loop dropped the item without executing it, Result
// panics with a diagnostic naming the probable causes (loop not running,
// or process shutting down).
func (f *Future[R]) Result() R {
	f.resolve()
	if !f.ok {
		panic(dispatchDroppedMsg)
	}
	if f.out.panicked {
		panic(f.out.panicVal)
	}
	return f.out.value
}

// Wait blocks until the future settles or ctx expires, returning ctx's
// error in the latter case.
//
// The dispatched work keeps running after a timed-out Wait and the
// future remains awaitable; a later Result or Wait observes the eventual
// settlement. Like Result, Wait re-raises closure panics and panics on
// dropped items.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.Result(), nil
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.Result(), nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
