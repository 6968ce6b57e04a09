// Package mainthread bridges the Go runtime's multi-worker scheduler and
// a designated main OS thread, for programs that must keep certain work
// on the thread the process started with.
//
// Some platform frameworks (notably on darwin) demand that windows,
// run loops, and UI mutations happen on the main thread, while everything
// else in a modern program wants to run concurrently elsewhere. This
// package lets goroutines submit closures to the main thread and collect
// their results, and structures program entry points and test binaries so
// the main thread stays parked in a FIFO loop, available for that work,
// while the program's real logic runs on the executor.
//
// # Dispatch
//
// [Call] runs a closure on the main thread and blocks for its value;
// [Dispatch] queues a closure and returns a [Future] to await. Both
// preserve submission order and carry panics back to the awaiting
// goroutine. On platforms without main-thread affinity (everything but
// darwin) both execute the closure inline on the caller; this is a
// compatibility guarantee, making portable code behave identically, not
// an optimization. [IsMainThread] answers where the caller is running
// and is vacuously true on non-affinity platforms.
//
// The same operations are available against an explicit [Loop] via
// [Async] and [Sync], on any platform. A Loop is a FIFO queue drained by
// whichever goroutine calls [Loop.Run], locked to its OS thread; the
// package-global [MainLoop] is simply the Loop that [Run] drives on the
// main goroutine.
//
// # Entry points
//
// [Run] is the program scaffold: it installs the process-wide executor,
// runs the program body on it, keeps the main thread draining MainLoop
// (on darwin) until the body completes, and exits the process with a
// status reflecting the body's outcome. The [Executor] singleton behind
// it is installed idempotently by [InitExecutor] and reached with
// [CurrentExecutor] or [BlockOn]; jobs are tracked goroutines scheduled
// by the Go runtime across GOMAXPROCS workers (container-quota aware).
//
// # Testing main-thread code
//
// Package harness provides a test registry and runner for binaries that
// need the main-thread plumbing available while tests execute, which
// ordinary `go test` does not arrange on affinity platforms. Tests
// register themselves at init time and the harness drives the main loop
// while running them on the executor.
//
// # Caveats
//
// Dispatching synchronously from the main thread deadlocks by
// construction and is rejected with a panic. Work queued against a loop
// that nobody runs parks its awaiters indefinitely, exactly as a
// platform main queue would; see examples/03_probe for a diagnostic
// pattern.
package mainthread
