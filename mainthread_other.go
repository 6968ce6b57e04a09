//go:build !darwin

package mainthread

import (
	"context"
)

// IsMainThread reports whether the caller is running on the process's
// main thread.
//
// Platforms other than darwin impose no main-thread affinity on this
// package: Call and Dispatch execute inline on the caller, so the check
// is vacuously true everywhere, including on freshly spawned goroutines.
// This is a compatibility guarantee for portable code, not a platform
// detection facility.
func IsMainThread() bool {
	return true
}

// Call runs fn inline on the calling goroutine and returns its value:
// platforms without main-thread affinity make no thread hop. A panic
// inside fn propagates to the caller, matching the re-raise behavior of
// affinity platforms.
func Call[R any](fn func() R) R {
	return fn()
}

// Dispatch runs fn inline on the calling goroutine and returns an
// already-settled Future holding its result. A panic inside fn is
// captured and re-raised when the future is awaited, exactly as on
// affinity platforms.
func Dispatch[R any](fn func() R) *Future[R] {
	f := newFuture[R]()
	var out outcome[R]
	func() {
		defer func() {
			if r := recover(); r != nil {
				out.panicked = true
				out.panicVal = r
			}
		}()
		out.value = fn()
	}()
	f.settle(out)
	return f
}

// runMain blocks the process on the program body directly; there is no
// loop to drive.
func runMain(body func(context.Context) error, cfg *runOptions) int {
	return runInline(body, cfg)
}
