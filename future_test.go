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

func TestFuture_SettleDeliversValue(t *testing.T) {
	f := newFuture[int]()
	go f.settle(outcome[int]{value: 42})

	if got := f.Result(); got != 42 {
		t.Fatalf("Result() = %d, want 42", got)
	}
	if !f.Settled() {
		t.Error("Settled() = false after settle")
	}

	// Every further await observes the same settlement.
	if got := f.Result(); got != 42 {
		t.Errorf("second Result() = %d, want 42", got)
	}
	v, err := f.Wait(context.Background())
	if err != nil || v != 42 {
		t.Errorf("Wait() = %d, %v, want 42, nil", v, err)
	}
}

// TestFuture_ConcurrentAwaiters has several goroutines blocked on one
// future; all of them must observe the single settlement.
func TestFuture_ConcurrentAwaiters(t *testing.T) {
	f := newFuture[string]()

	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			if got := f.Result(); got != "done" {
				return fmt.Errorf("Result() = %q, want done", got)
			}
			return nil
		})
	}

	f.settle(outcome[string]{value: "done"})
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestFuture_PanicReRaised(t *testing.T) {
	type marker struct{ code int }
	f := newFuture[int]()
	f.settle(outcome[int]{panicked: true, panicVal: marker{code: 7}})

	defer func() {
		r := recover()
		m, ok := r.(marker)
		if !ok || m.code != 7 {
			t.Errorf("recovered %v, want marker{7}", r)
		}
	}()
	f.Result()
}

func TestFuture_DroppedPanicsWithDiagnostic(t *testing.T) {
	f := newFuture[int]()
	f.fail()

	if !f.Settled() {
		t.Error("Settled() = false after fail")
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

// TestFuture_WaitContextExpiry verifies that an expired Wait leaves the
// future awaitable: the eventual settlement is still observed.
func TestFuture_WaitContextExpiry(t *testing.T) {
	f := newFuture[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}

	f.settle(outcome[int]{value: 7})
	if got := f.Result(); got != 7 {
		t.Errorf("Result() after expired Wait = %d, want 7", got)
	}
	if v, err := f.Wait(nil); err != nil || v != 7 {
		t.Errorf("Wait(nil) = %d, %v, want 7, nil", v, err)
	}
}

func TestFuture_DoneClosesOnSettle(t *testing.T) {
	f := newFuture[int]()

	select {
	case <-f.Done():
		t.Fatal("Done() closed before settle")
	default:
	}
	if f.Settled() {
		t.Fatal("Settled() = true before settle")
	}

	f.settle(outcome[int]{value: 1})

	select {
	case <-f.Done():
	default:
		t.Fatal("Done() not closed after settle")
	}
}
