package harness

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// reporter writes go-test-flavored progress and summary lines:
//
//	=== RUN   case_name            (verbose only)
//	--- PASS: case_name (0.00s)
//	    recorded output line
//	PASS
//	3 passed; 1 failed; 0 skipped
//
// Durations are omitted when timings are disabled, which keeps output
// byte-for-byte reproducible.
type reporter struct {
	w       io.Writer
	mu      sync.Mutex
	passed  int
	failed  int
	skipped int
	verbose bool
	timings bool
}

func newReporter(w io.Writer, verbose, timings bool) *reporter {
	return &reporter{w: w, verbose: verbose, timings: timings}
}

func (r *reporter) start(name string) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "=== RUN   %s\n", name)
}

func (r *reporter) result(res caseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var label string
	switch res.status {
	case statusFailed:
		label = "FAIL"
		r.failed++
	case statusSkipped:
		label = "SKIP"
		r.skipped++
	default:
		label = "PASS"
		r.passed++
	}
	if r.timings {
		fmt.Fprintf(r.w, "--- %s: %s (%.2fs)\n", label, res.name, res.elapsed.Seconds())
	} else {
		fmt.Fprintf(r.w, "--- %s: %s\n", label, res.name)
	}
	for _, entry := range res.output {
		for _, line := range strings.Split(entry, "\n") {
			fmt.Fprintf(r.w, "    %s\n", line)
		}
	}
}

// summary prints the aggregate verdict and returns the process exit
// code: 0 when nothing failed (skips are not failures), 1 otherwise.
func (r *reporter) summary() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed > 0 {
		fmt.Fprintln(r.w, "FAIL")
	} else {
		fmt.Fprintln(r.w, "PASS")
	}
	fmt.Fprintf(r.w, "%d passed; %d failed; %d skipped\n", r.passed, r.failed, r.skipped)
	if r.failed > 0 {
		return 1
	}
	return 0
}
