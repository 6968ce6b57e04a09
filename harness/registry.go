package harness

import (
	"context"
	"sync"
)

// testCase pairs a registered name with its body.
type testCase struct {
	name string
	body func(context.Context, *T)
}

// registry is the process-wide, append-only case registry.
var registry struct {
	mu    sync.Mutex
	cases []testCase
}

// Register adds a named case to the process-wide registry.
//
// Register is safe for concurrent use and is typically called from init
// functions, so cases registered across files and packages are all
// visible by the time main (or TestMain) runs. Registration order is
// preserved; names need not be unique, though duplicates make reports
// ambiguous. The registry is append-only: cases cannot be removed, and
// a body, once registered, will be discovered by the next run.
func Register(name string, body func(context.Context, *T)) {
	if body == nil {
		panic("harness: nil test body")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.cases = append(registry.cases, testCase{name: name, body: body})
}

// snapshot returns the registered cases at a point in time. Discovery
// reads the registry exactly once per run; cases registered afterwards
// are invisible to an in-flight run.
func snapshot() []testCase {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return append([]testCase(nil), registry.cases...)
}
