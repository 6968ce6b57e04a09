package mainthread

import (
	"fmt"
	"runtime"
	"sync"
)

// The process-global loop, created on first use.
var (
	mainLoopOnce sync.Once
	mainLoopInst *Loop
)

// MainLoop returns the process-global main-thread loop, creating it on
// first use.
//
// On darwin the package-level [Call] and [Dispatch] route through this
// loop, and [Run] (or the harness) drives it on the main goroutine. On
// other platforms it exists but nothing routes through it implicitly; it
// behaves as any other explicitly driven Loop.
//
// Submissions against a loop nobody runs park their awaiters
// indefinitely. That mirrors platform main queues: enqueueing work does
// not start the loop.
func MainLoop() *Loop {
	mainLoopOnce.Do(func() {
		l, err := NewLoop()
		if err != nil {
			panic(fmt.Errorf("mainthread: failed to construct main loop: %w", err))
		}
		mainLoopInst = l
	})
	return mainLoopInst
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
