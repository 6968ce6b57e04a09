package mainthread

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joeycumines/logiface"
)

// osExit is swapped out by tests.
var osExit = os.Exit

// Run executes body on the process-wide executor while keeping the main
// thread available for main-thread work, then terminates the process:
// exit status 0 if body returns nil, 1 if it returns an error or panics.
// Run never returns.
//
// Call Run from main() on the main goroutine, exactly once. It installs
// the process-wide executor (InitExecutor) before body starts, so body
// and anything it spawns may use BlockOn and CurrentExecutor freely.
//
// On darwin the calling goroutine drives [MainLoop] for the duration of
// body, so Call and Dispatch from any goroutine land on the main thread.
// When body completes, the stop signal is sent through the main loop's
// own queue; already-queued work drains, the loop stops, and the process
// exits. On other platforms there is no loop to drive: the process
// simply blocks on body.
func Run(body func(context.Context) error, opts ...RunOption) {
	cfg, err := resolveRunOptions(opts)
	if err != nil {
		panic(fmt.Errorf("mainthread: invalid run option: %w", err))
	}
	osExit(runMain(body, cfg))
}

// runLoop runs body as an executor job while the calling goroutine
// drives l, returning the process exit status. The loop is stopped, via
// its own queue, as soon as the body settles.
func runLoop(l *Loop, body func(context.Context) error, cfg *runOptions) int {
	e := InitExecutor(WithExecutorLogger(cfg.logger))
	job := Go(e, context.Background(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, body(ctx)
	})
	go func() {
		<-job.Done()
		_ = l.Shutdown(context.Background())
	}()
	if err := l.Run(context.Background()); err != nil {
		// The loop handed to Run is single-owner; a competing Run or a
		// stopped loop is a programming error.
		panic(fmt.Errorf("mainthread: run: %w", err))
	}
	_, err := job.Result()
	return exitStatus(err, cfg.logger)
}

// runInline blocks directly on body; used where no loop is driven.
func runInline(body func(context.Context) error, cfg *runOptions) int {
	InitExecutor(WithExecutorLogger(cfg.logger))
	_, err := BlockOn(context.Background(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, body(ctx)
	})
	return exitStatus(err, cfg.logger)
}

// exitStatus maps the body's outcome to a process exit status, logging
// abnormal outcomes.
func exitStatus(err error, logger *logiface.Logger[logiface.Event]) int {
	if err == nil {
		return 0
	}
	var panicErr PanicError
	if errors.As(err, &panicErr) {
		logger.Err().
			Any(`recovered`, panicErr.Value).
			Log(`program body panicked`)
	} else {
		logger.Err().
			Err(err).
			Log(`program body failed`)
	}
	return 1
}
