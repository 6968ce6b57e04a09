//go:build darwin

package mainthread

import (
	"context"
	"runtime"
)

// mainGoroutineID identifies the goroutine that ran package init. The
// runtime runs init and main() on the same goroutine, and init pins it
// to the process's initial OS thread below, so goroutine identity
// answers thread identity for the life of the process.
var mainGoroutineID uint64

func init() {
	runtime.LockOSThread()
	mainGoroutineID = getGoroutineID()
}

// IsMainThread reports whether the caller is running on the process's
// main thread.
//
// Safe from any goroutine at any time, before, during, or after the main
// loop; it never blocks and has no side effects. Closures dispatched via
// Call and Dispatch observe IsMainThread() == true provided the main
// loop is driven from the main goroutine (see [Run]).
func IsMainThread() bool {
	return getGoroutineID() == mainGoroutineID
}

// Call runs fn on the main thread and blocks the caller until it
// completes, returning its value. A panic inside fn is re-raised on the
// calling goroutine.
//
// Call requires [MainLoop] to be running (see [Run]); otherwise the
// caller parks until it is. Calling from the main thread itself would
// deadlock and is rejected with a panic.
func Call[R any](fn func() R) R {
	return Sync(MainLoop(), fn)
}

// Dispatch queues fn for the main thread and returns a Future that
// settles with its result. The caller does not block; awaiting the
// future re-raises fn's panic, if any.
//
// The future may be discarded: fn still runs on the main thread once the
// loop drains it, its result is simply dropped.
func Dispatch[R any](fn func() R) *Future[R] {
	return Async(MainLoop(), fn)
}

// runMain drives the program body against the main loop on the calling
// goroutine.
func runMain(body func(context.Context) error, cfg *runOptions) int {
	return runLoop(MainLoop(), body, cfg)
}
