package mainthread

// Async submits fn to run on l's goroutine and returns a Future that
// settles with its result.
//
// Submission order is preserved: consecutive Async calls from one
// goroutine run in call order, interleaved FIFO with other submitters.
// A panic inside fn is captured and re-raised when the future is
// awaited. If l rejects the submission (stopping or stopped), the
// returned future is already failed and awaiting it panics with the
// dispatch diagnostic.
//
// The returned future may be discarded; fn still runs, its result is
// simply dropped.
func Async[R any](l *Loop, fn func() R) *Future[R] {
	f := newFuture[R]()
	item := workItem{
		run: func() {
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
		},
		abort: f.fail,
	}
	if err := l.submit(item); err != nil {
		f.fail()
	}
	return f
}

// Sync submits fn to run on l's goroutine and blocks the caller until it
// completes, returning its value. Equivalent to Async(l, fn).Result(),
// including the re-raise of fn's panic on the calling goroutine.
//
// Sync panics if called from the loop goroutine itself: the loop cannot
// drain its queue while blocked inside a queued item, so a same-loop
// synchronous dispatch can never complete. Asynchronous dispatch from
// the loop goroutine is fine.
func Sync[R any](l *Loop, fn func() R) R {
	if l.isLoopGoroutine() {
		panic("mainthread: Sync from the loop goroutine; synchronous dispatch onto the current loop deadlocks")
	}
	return Async(l, fn).Result()
}
