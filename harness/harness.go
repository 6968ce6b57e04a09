// Package harness runs registered test cases with main-thread dispatch
// available while they execute.
//
// Ordinary `go test` drives tests without arranging for a main-thread
// loop, which on affinity platforms (darwin) leaves mainthread.Call and
// mainthread.Dispatch parked forever. This harness inverts the
// arrangement: cases register themselves at init time via [Register],
// and [Main] (or [TestMain], under `go test`) drives the main loop on
// the main goroutine while each case body runs to completion on the
// executor.
//
// A minimal test binary:
//
//	func init() {
//		harness.Register("answer_is_42", func(ctx context.Context, t *harness.T) {
//			if got := mainthread.Call(func() int { return 42 }); got != 42 {
//				t.Errorf("got %d", got)
//			}
//		})
//	}
//
//	func main() { harness.Main() }
//
// Cases run sequentially in registration order, each as an independent
// executor job; panics, FailNow, and SkipNow are contained to their case
// and never prevent siblings from running. The process exit code
// aggregates: zero when nothing failed.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"testing"

	"github.com/joeycumines/go-mainthread"
	"github.com/joeycumines/logiface"
)

// osExit is swapped out by tests.
var osExit = os.Exit

// config holds resolved harness configuration.
type config struct {
	out         io.Writer
	logger      *logiface.Logger[logiface.Event]
	loop        *mainthread.Loop
	filter      string
	listPattern string
	verbose     bool
	timings     bool
	list        bool
}

// --- Options ---

// Option configures Run and Main.
type Option interface {
	apply(*config) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*config) error
}

func (o *optionImpl) apply(cfg *config) error {
	return o.applyFunc(cfg)
}

// WithOutput sets the report destination. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.out = w
		return nil
	}}
}

// WithVerbose enables per-case RUN lines in the report.
func WithVerbose(enabled bool) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.verbose = enabled
		return nil
	}}
}

// WithTimings controls whether per-case durations appear in the report.
// Enabled by default; disable for byte-for-byte reproducible output.
func WithTimings(enabled bool) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.timings = enabled
		return nil
	}}
}

// WithFilter restricts the run to cases whose name matches the given
// regular expression, like `go test -run`.
func WithFilter(pattern string) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.filter = pattern
		return nil
	}}
}

// WithLogger sets the structured logger for harness diagnostics; it is
// also handed to the executor the harness installs, unless InitExecutor
// already ran. A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.logger = logger
		return nil
	}}
}

// WithLoop overrides the loop the harness drives while cases run. The
// platform default is mainthread.MainLoop() on darwin and no loop
// elsewhere; passing nil forces loopless execution on any platform,
// passing a fresh loop forces loop-driven execution on any platform.
func WithLoop(l *mainthread.Loop) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.loop = l
		return nil
	}}
}

// WithArgs applies the host test-runner argument conventions (-run, -v,
// -list, and their -test.* spellings; unrecognized arguments are
// ignored). Main applies this with os.Args[1:] before any explicit
// options.
func WithArgs(args []string) Option {
	return &optionImpl{func(cfg *config) error {
		o := parseArgs(args)
		if o.run != "" {
			cfg.filter = o.run
		}
		if o.verbose {
			cfg.verbose = true
		}
		if o.list {
			cfg.list = true
			cfg.listPattern = o.listPattern
		}
		return nil
	}}
}

// resolveConfig applies Option instances over platform defaults.
func resolveConfig(opts []Option) (*config, error) {
	cfg := &config{
		out:     os.Stdout,
		loop:    defaultLoop(),
		timings: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Run discovers the registered cases and executes them, returning the
// process exit code: 0 when every selected case passed or was skipped,
// 1 when any failed, 2 when the configuration is unusable (for example
// a bad filter expression).
//
// Discovery reads the registry exactly once; cases registered after Run
// starts are invisible to it. Cases execute sequentially in
// registration order, each as an independent executor job.
//
// On darwin, Run drives mainthread.MainLoop on the calling goroutine
// while cases execute, so bodies may use mainthread.Call and
// mainthread.Dispatch; call Run (or Main) from the main goroutine. On
// other platforms cases run directly, with no loop. [WithLoop]
// overrides the platform default, which is how the harness's own tests
// exercise the loop-driven path portably.
func Run(opts ...Option) int {
	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "harness: invalid option: %v\n", err)
		return 2
	}

	cases := snapshot()
	if cfg.filter != "" {
		re, err := regexp.Compile(cfg.filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "harness: bad filter %q: %v\n", cfg.filter, err)
			return 2
		}
		cases = filterCases(cases, re)
	}

	if cfg.list {
		if cfg.listPattern != "" {
			re, err := regexp.Compile(cfg.listPattern)
			if err != nil {
				fmt.Fprintf(os.Stderr, "harness: bad list pattern %q: %v\n", cfg.listPattern, err)
				return 2
			}
			cases = filterCases(cases, re)
		}
		for _, c := range cases {
			fmt.Fprintln(cfg.out, c.name)
		}
		return 0
	}

	cfg.logger.Debug().
		Int(`cases`, len(cases)).
		Log(`harness run starting`)

	exec := mainthread.InitExecutor(mainthread.WithExecutorLogger(cfg.logger))
	rep := newReporter(cfg.out, cfg.verbose, cfg.timings)
	r := &runner{exec: exec, rep: rep}

	if cfg.loop != nil {
		go func() {
			// Stopping the loop through its own queue ends Run below
			// once all cases have settled and reported.
			defer func() { _ = cfg.loop.Shutdown(context.Background()) }()
			r.runCases(cases)
		}()
		if err := cfg.loop.Run(context.Background()); err != nil {
			panic(fmt.Errorf("harness: loop: %w", err))
		}
	} else {
		r.runCases(cases)
	}

	return rep.summary()
}

func filterCases(cases []testCase, re *regexp.Regexp) []testCase {
	filtered := cases[:0:0]
	for _, c := range cases {
		if re.MatchString(c.name) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Main runs every registered case with the ambient argument conventions
// applied (os.Args), then terminates the process with the aggregate
// exit code. It never returns.
//
// Call Main from main() on the main goroutine. Explicit options are
// applied after the argument-derived ones and take precedence.
func Main(opts ...Option) {
	combined := append([]Option{WithArgs(os.Args[1:])}, opts...)
	osExit(Run(combined...))
}

// TestMain is a drop-in testing.M hook for running the harness under
// `go test`:
//
//	func TestMain(m *testing.M) { harness.TestMain(m) }
//
// The testing.M's own case list is deliberately ignored (the registered
// harness cases are the test surface), but the go-test argument
// conventions (-test.run, -test.v) are honored. This works because the
// testing package invokes TestMain on the main goroutine, which is the
// one this package's platform layer pins to the main thread.
func TestMain(m *testing.M) {
	_ = m
	Main()
}
