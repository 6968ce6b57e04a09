package mainthread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestAsync_RoundTrip(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	f := Async(loop, func() int { return 21 * 2 })
	if got := f.Result(); got != 42 {
		t.Errorf("Result() = %d, want 42", got)
	}
}

func TestAsync_CompositeValue(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	f := Async(loop, func() map[string][]int {
		return map[string][]int{"a": {1, 2}, "b": {3}}
	})
	got := f.Result()
	if len(got) != 2 || len(got["a"]) != 2 || got["a"][1] != 2 || got["b"][0] != 3 {
		t.Errorf("Result() = %v", got)
	}

	// Zero-sized results work; only completion is interesting.
	Async(loop, func() struct{} { return struct{}{} }).Result()
}

func TestSync_ReturnsValue(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	if got := Sync(loop, func() string { return "hello" }); got != "hello" {
		t.Errorf("Sync() = %q, want hello", got)
	}
}

// TestSync_RunsOnLoopGoroutine verifies dispatched closures execute on
// the loop goroutine, and on the same one every time.
func TestSync_RunsOnLoopGoroutine(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	loopID := Sync(loop, getGoroutineID)
	if loopID == 0 {
		t.Fatal("loop goroutine id parsed as zero")
	}
	if loopID == getGoroutineID() {
		t.Error("dispatched closure ran on the calling goroutine")
	}
	if again := Sync(loop, getGoroutineID); again != loopID {
		t.Errorf("loop goroutine changed between dispatches: %d then %d", loopID, again)
	}
}

func TestSync_PanicReRaisedOnCaller(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	got := func() (r any) {
		defer func() { r = recover() }()
		Sync(loop, func() int { panic("kaboom") })
		return nil
	}()
	if got != "kaboom" {
		t.Errorf("recovered %v, want kaboom", got)
	}

	// The loop survives the panic.
	if v := Sync(loop, func() int { return 5 }); v != 5 {
		t.Errorf("Sync() after panic = %d, want 5", v)
	}
}

func TestAsync_PanicReRaisedAtAwait(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	sentinel := errors.New("deferred kaboom")
	f := Async(loop, func() int { panic(sentinel) })

	select {
	case <-f.Done():
	case <-time.After(time.Second * 5):
		t.Fatal("future did not settle")
	}

	got := func() (r any) {
		defer func() { r = recover() }()
		f.Result()
		return nil
	}()
	if got != any(sentinel) {
		t.Errorf("recovered %v, want the original panic value", got)
	}
}

// TestAsync_DiscardedFutureStillRuns verifies fire-and-forget dispatch:
// nobody awaits, the work runs regardless.
func TestAsync_DiscardedFutureStillRuns(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	ran := make(chan struct{})
	_ = Async(loop, func() struct{} {
		close(ran)
		return struct{}{}
	})

	select {
	case <-ran:
	case <-time.After(time.Second * 5):
		t.Fatal("discarded dispatch did not run")
	}
}

// TestAsync_OrderPreserved verifies consecutive dispatches from one
// goroutine run in call order.
func TestAsync_OrderPreserved(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	const n = 100
	var order []int
	for i := 0; i < n; i++ {
		i := i
		Async(loop, func() struct{} {
			order = append(order, i)
			return struct{}{}
		})
	}

	Sync(loop, func() struct{} { return struct{}{} })

	if len(order) != n {
		t.Fatalf("ran %d dispatches, want %d", len(order), n)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

// TestSync_ConcurrentCallers hammers one loop from many goroutines; each
// caller must get its own closure's value back.
func TestSync_ConcurrentCallers(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		eg.Go(func() error {
			for j := 0; j < 50; j++ {
				if got := Sync(loop, func() int { return i * 10 }); got != i*10 {
					return fmt.Errorf("caller %d: Sync() = %d, want %d", i, got, i*10)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestAsync_AfterShutdownFails(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	stop()

	f := Async(loop, func() int {
		t.Error("closure ran on a stopped loop")
		return 0
	})
	if !f.Settled() {
		t.Fatal("rejected dispatch did not settle its future")
	}

	defer func() {
		r := recover()
		s, ok := r.(string)
		if !ok || !strings.Contains(s, "not running") {
			t.Errorf("recovered %v, want dropped-dispatch diagnostic", r)
		}
	}()
	f.Result()
}

// TestAsync_WaitTimeoutThenLateResult verifies the wait-with-timeout
// pattern: the caller gives up waiting, the work completes anyway, and a
// later await observes the value.
func TestAsync_WaitTimeoutThenLateResult(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	gate := make(chan struct{})
	entered := make(chan struct{})
	f := Async(loop, func() int {
		close(entered)
		<-gate
		return 99
	})
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}

	close(gate)
	if got := f.Result(); got != 99 {
		t.Errorf("Result() after expired Wait = %d, want 99", got)
	}
}

// TestSync_FromLoopGoroutinePanics verifies the deadlock guard: a
// synchronous dispatch onto the loop the caller is already running on is
// rejected with a panic, while asynchronous dispatch remains legal.
func TestSync_FromLoopGoroutinePanics(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	loop, stop := startLoop(t)
	defer stop()

	got := func() (r any) {
		defer func() { r = recover() }()
		Sync(loop, func() int {
			Sync(loop, func() int { return 1 })
			return 0
		})
		return nil
	}()
	s, ok := got.(string)
	if !ok || !strings.Contains(s, "deadlock") {
		t.Errorf("recovered %v, want same-loop dispatch panic", got)
	}

	// Async from the loop goroutine is fine; the item runs later in the
	// same drain.
	f := Sync(loop, func() *Future[int] {
		return Async(loop, func() int { return 3 })
	})
	if got := f.Result(); got != 3 {
		t.Errorf("nested Async Result() = %d, want 3", got)
	}
}
