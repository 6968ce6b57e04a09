package mainthread

import (
	"sync"
)

// chunkSize is the number of items per node in the workQueue linked list.
// 128 items keeps a chunk around 3KB with good cache locality while
// amortizing allocations under bursty submission.
const chunkSize = 128

// workItem is a single queued unit of main-thread work.
//
// run executes on the loop goroutine. abort, when non-nil, is invoked
// instead of run if the loop drops the item without executing it (the
// loop stopped before the item was drained); it must be safe to call
// from any goroutine.
type workItem struct {
	run   func()
	abort func()
}

// workQueue is a chunked linked-list FIFO for work item submission.
//
// Thread Safety: this struct is NOT thread-safe. The caller must provide
// external synchronization (the Loop's mutex).
//
// Fixed-size chunks provide cache locality, and sync.Pool recycling keeps
// sustained submission from thrashing the GC.
type workQueue struct {
	head   *chunk
	tail   *chunk
	length int
}

// chunkPool recycles exhausted chunks.
var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk is a fixed-size node in the chunked linked-list.
// readPos/pos cursors give O(1) push/pop without shifting.
type chunk struct {
	items   [chunkSize]workItem
	next    *chunk
	readPos int // first unread slot
	pos     int // first unused slot
}

// newChunk returns a reset chunk from the pool.
func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk clears item slots and returns an exhausted chunk to the pool.
// Clearing prevents retained closures from outliving their dispatch.
func returnChunk(c *chunk) {
	for i := 0; i < c.pos; i++ {
		c.items[i] = workItem{}
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

// Push adds an item to the queue.
//
// CALLER MUST HOLD EXTERNAL MUTEX.
func (q *workQueue) Push(item workItem) {
	if q.tail == nil {
		q.tail = newChunk()
		q.head = q.tail
	}

	if q.tail.pos == len(q.tail.items) {
		newTail := newChunk()
		q.tail.next = newTail
		q.tail = newTail
	}

	q.tail.items[q.tail.pos] = item
	q.tail.pos++
	q.length++
}

// Pop removes and returns the oldest item.
//
// Returns false if the queue is empty.
//
// CALLER MUST HOLD EXTERNAL MUTEX.
func (q *workQueue) Pop() (workItem, bool) {
	if q.head == nil {
		return workItem{}, false
	}

	// Advance past an exhausted chunk (readPos == pos means all written
	// items were read).
	if q.head.readPos >= q.head.pos {
		// If this is the only chunk, the queue is empty; reset cursors
		// for reuse.
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
			return workItem{}, false
		}
		oldHead := q.head
		q.head = q.head.next
		returnChunk(oldHead)
	}

	// Double-check after potential chunk advancement.
	if q.head.readPos >= q.head.pos {
		return workItem{}, false
	}

	item := q.head.items[q.head.readPos]
	// Zero out the popped slot so the closure is collectible.
	q.head.items[q.head.readPos] = workItem{}
	q.head.readPos++
	q.length--

	// Free or reset the chunk if it is now exhausted.
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
			return item, true
		}
		oldHead := q.head
		q.head = q.head.next
		returnChunk(oldHead)
	}

	return item, true
}

// Length returns the queue length.
//
// CALLER MUST HOLD EXTERNAL MUTEX.
func (q *workQueue) Length() int {
	return q.length
}
