package mainthread

import (
	"errors"

	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger *logiface.Logger[logiface.Event]
}

// --- Loop Options ---

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLoopLogger sets the structured logger for loop lifecycle events
// and recovered task panics. Accepts the generic-erased form, obtained
// from any logiface backend via Logger.Logger(). A nil logger (the
// default) disables logging.
func WithLoopLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// executorOptions holds configuration options for Executor creation.
type executorOptions struct {
	logger  *logiface.Logger[logiface.Event]
	workers int
}

// --- Executor Options ---

// ExecutorOption configures an Executor instance.
type ExecutorOption interface {
	applyExecutor(*executorOptions) error
}

// executorOptionImpl implements ExecutorOption.
type executorOptionImpl struct {
	applyExecutorFunc func(*executorOptions) error
}

func (e *executorOptionImpl) applyExecutor(opts *executorOptions) error {
	return e.applyExecutorFunc(opts)
}

// WithWorkers overrides the executor's reported worker parallelism,
// which otherwise defaults to the available parallelism (GOMAXPROCS
// after container quota alignment). Values below one are rejected.
func WithWorkers(n int) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		if n < 1 {
			return errors.New("mainthread: workers must be at least one")
		}
		opts.workers = n
		return nil
	}}
}

// WithExecutorLogger sets the structured logger for executor lifecycle
// events and recovered job panics. A nil logger (the default) disables
// logging.
func WithExecutorLogger(logger *logiface.Logger[logiface.Event]) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveExecutorOptions applies ExecutorOption instances to executorOptions.
func resolveExecutorOptions(opts []ExecutorOption) (*executorOptions, error) {
	cfg := &executorOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.applyExecutor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// runOptions holds configuration options for Run.
type runOptions struct {
	logger *logiface.Logger[logiface.Event]
}

// --- Run Options ---

// RunOption configures Run.
type RunOption interface {
	applyRun(*runOptions) error
}

// runOptionImpl implements RunOption.
type runOptionImpl struct {
	applyRunFunc func(*runOptions) error
}

func (r *runOptionImpl) applyRun(opts *runOptions) error {
	return r.applyRunFunc(opts)
}

// WithRunLogger sets the structured logger for entry-point diagnostics
// (body failures and panics). It is also handed to the executor Run
// installs, unless InitExecutor already ran. A nil logger (the default)
// disables logging.
func WithRunLogger(logger *logiface.Logger[logiface.Event]) RunOption {
	return &runOptionImpl{func(opts *runOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveRunOptions applies RunOption instances to runOptions.
func resolveRunOptions(opts []RunOption) (*runOptions, error) {
	cfg := &runOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // skip nil options gracefully
		}
		if err := opt.applyRun(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
