package harness

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// T is the per-case recorder passed to registered test bodies.
//
// It implements the surface assertion libraries rely on (Errorf,
// FailNow, Helper, and friends), so testify's require and assert
// packages work against it directly. Failures mark the case failed
// without affecting sibling cases.
//
// T is safe for concurrent use. FailNow, Fatal, Fatalf, Skip, Skipf and
// SkipNow stop the case via runtime.Goexit (stdlib testing semantics),
// so they must be called from the goroutine running the case body;
// helper goroutines should use Error or Errorf and let the body observe
// the failure.
type T struct {
	ctx     context.Context
	name    string
	mu      sync.Mutex
	output  []string
	failed  bool
	skipped bool
}

func newT(ctx context.Context, name string) *T {
	return &T{ctx: ctx, name: name}
}

// Name returns the case name as registered.
func (t *T) Name() string {
	return t.name
}

// Context returns a context that is cancelled once the case completes.
func (t *T) Context() context.Context {
	return t.ctx
}

// Helper is a no-op, provided so assertion helpers that promote stack
// frames when available can call it.
func (t *T) Helper() {}

// Failed reports whether the case has been marked failed.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Skipped reports whether the case was skipped.
func (t *T) Skipped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

// Fail marks the case failed without stopping its body.
func (t *T) Fail() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
}

// FailNow marks the case failed and stops the body via runtime.Goexit.
func (t *T) FailNow() {
	t.Fail()
	runtime.Goexit()
}

// SkipNow marks the case skipped and stops the body via runtime.Goexit.
// A case both failed and skipped reports as failed.
func (t *T) SkipNow() {
	t.mu.Lock()
	t.skipped = true
	t.mu.Unlock()
	runtime.Goexit()
}

// log records one line of case output.
func (t *T) log(s string) {
	t.mu.Lock()
	t.output = append(t.output, strings.TrimSuffix(s, "\n"))
	t.mu.Unlock()
}

// takeOutput returns the recorded output lines.
func (t *T) takeOutput() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.output...)
}

// Log records its arguments in the case output, formatted like fmt.Sprintln.
func (t *T) Log(args ...any) {
	t.log(fmt.Sprintln(args...))
}

// Logf records a formatted line in the case output.
func (t *T) Logf(format string, args ...any) {
	t.log(fmt.Sprintf(format, args...))
}

// Error is equivalent to Log followed by Fail.
func (t *T) Error(args ...any) {
	t.log(fmt.Sprintln(args...))
	t.Fail()
}

// Errorf is equivalent to Logf followed by Fail.
func (t *T) Errorf(format string, args ...any) {
	t.log(fmt.Sprintf(format, args...))
	t.Fail()
}

// Fatal is equivalent to Log followed by FailNow.
func (t *T) Fatal(args ...any) {
	t.log(fmt.Sprintln(args...))
	t.FailNow()
}

// Fatalf is equivalent to Logf followed by FailNow.
func (t *T) Fatalf(format string, args ...any) {
	t.log(fmt.Sprintf(format, args...))
	t.FailNow()
}

// Skip is equivalent to Log followed by SkipNow.
func (t *T) Skip(args ...any) {
	t.log(fmt.Sprintln(args...))
	t.SkipNow()
}

// Skipf is equivalent to Logf followed by SkipNow.
func (t *T) Skipf(format string, args ...any) {
	t.log(fmt.Sprintf(format, args...))
	t.SkipNow()
}
