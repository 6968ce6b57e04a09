//go:build !darwin

package mainthread

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

// TestIsMainThread_VacuouslyTrue verifies the compatibility guarantee on
// platforms without main-thread affinity: every goroutine passes the
// check, even freshly spawned or thread-locked ones.
func TestIsMainThread_VacuouslyTrue(t *testing.T) {
	if !IsMainThread() {
		t.Error("IsMainThread() = false on the test goroutine")
	}

	results := make(chan bool, 2)
	go func() { results <- IsMainThread() }()
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		results <- IsMainThread()
	}()
	for i := 0; i < 2; i++ {
		if !<-results {
			t.Error("IsMainThread() = false on a spawned goroutine")
		}
	}
}

// TestCall_Inline verifies Call executes on the calling goroutine, with
// panics propagating directly.
func TestCall_Inline(t *testing.T) {
	self := getGoroutineID()
	if got := Call(getGoroutineID); got != self {
		t.Errorf("Call ran on goroutine %d, caller is %d", got, self)
	}
	if got := Call(func() string { return "inline" }); got != "inline" {
		t.Errorf("Call() = %q, want inline", got)
	}

	got := func() (r any) {
		defer func() { r = recover() }()
		Call(func() int { panic("direct") })
		return nil
	}()
	if got != any("direct") {
		t.Errorf("recovered %v, want direct", got)
	}
}

// TestDispatch_InlineSettled verifies Dispatch on a non-affinity
// platform returns an already-settled future, deferring any panic to the
// await point.
func TestDispatch_InlineSettled(t *testing.T) {
	f := Dispatch(func() int { return 7 })
	if !f.Settled() {
		t.Fatal("Dispatch() future not settled on return")
	}
	if got := f.Result(); got != 7 {
		t.Errorf("Result() = %d, want 7", got)
	}

	// The Dispatch call itself must not panic; the await re-raises.
	f2 := Dispatch(func() int { panic("deferred") })
	if !f2.Settled() {
		t.Fatal("panicking Dispatch() future not settled on return")
	}
	got := func() (r any) {
		defer func() { r = recover() }()
		f2.Result()
		return nil
	}()
	if got != any("deferred") {
		t.Errorf("recovered %v, want deferred", got)
	}
}

// TestRun_ExitCode exercises the exported entry point with os.Exit
// stubbed out.
func TestRun_ExitCode(t *testing.T) {
	defer func(orig func(int)) { osExit = orig }(osExit)
	var code int
	osExit = func(c int) { code = c }

	Run(func(ctx context.Context) error { return nil })
	if code != 0 {
		t.Errorf("exit code = %d for nil body error, want 0", code)
	}

	Run(func(ctx context.Context) error { return errors.New("nope") })
	if code != 1 {
		t.Errorf("exit code = %d for body error, want 1", code)
	}
}

func TestRun_InvalidOptionPanics(t *testing.T) {
	defer func(orig func(int)) { osExit = orig }(osExit)
	osExit = func(int) {}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !strings.Contains(err.Error(), "invalid run option") {
			t.Errorf("recovered %v, want invalid option error", r)
		}
	}()
	Run(func(ctx context.Context) error { return nil }, failingRunOption{})
}

// failingRunOption rejects its own application.
type failingRunOption struct{}

func (failingRunOption) applyRun(*runOptions) error {
	return errors.New("rejected")
}
