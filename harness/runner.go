package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/joeycumines/go-mainthread"
)

type caseStatus int

const (
	statusPassed caseStatus = iota
	statusFailed
	statusSkipped
)

// caseResult is the settled outcome of one case.
type caseResult struct {
	name    string
	output  []string
	elapsed time.Duration
	status  caseStatus
}

// runner executes discovered cases sequentially on the executor.
type runner struct {
	exec *mainthread.Executor
	rep  *reporter
}

// runCases executes each case as an independent executor job, in
// registration order, reporting each as it settles.
func (r *runner) runCases(cases []testCase) {
	for _, c := range cases {
		r.rep.result(r.runCase(c))
	}
}

// runCase runs one case body to completion, containing panics, FailNow,
// and SkipNow to that case so a failing body never takes down siblings.
func (r *runner) runCase(c testCase) caseResult {
	r.rep.start(c.name)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := newT(ctx, c.name)
	start := time.Now()
	job := mainthread.Go(r.exec, ctx, func(ctx context.Context) (struct{}, error) {
		defer func() {
			if rec := recover(); rec != nil {
				t.log(fmt.Sprintf("panic: %v\n\n%s", rec, debug.Stack()))
				t.Fail()
			}
		}()
		c.body(ctx, t)
		return struct{}{}, nil
	})
	_, err := job.Result()
	elapsed := time.Since(start)

	switch {
	case err == nil:
	case errors.Is(err, mainthread.ErrGoexit):
		// FailNow and SkipNow exit this way; anything else Goexiting a
		// body without reporting is itself a failure.
		if !t.Failed() && !t.Skipped() {
			t.log("case exited via runtime.Goexit without reporting a failure or skip")
			t.Fail()
		}
	default:
		t.log(fmt.Sprintf("harness: job error: %v", err))
		t.Fail()
	}

	res := caseResult{name: c.name, elapsed: elapsed, output: t.takeOutput()}
	switch {
	case t.Failed():
		res.status = statusFailed
	case t.Skipped():
		res.status = statusSkipped
	default:
		res.status = statusPassed
	}
	return res
}
