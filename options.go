package decs

import (
	"log/slog"
	"runtime"
)

// FailurePolicy decides what a dispatcher does when a system fails.
type FailurePolicy int

const (
	// FailFast aborts the tick's remaining stages and returns the failure.
	FailFast FailurePolicy = iota

	// ContinueOnFailure logs the failure, finishes the tick and returns
	// every failure once the tick is done.
	ContinueOnFailure
)

// String returns the string representation of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case ContinueOnFailure:
		return "continue"
	default:
		return "unknown"
	}
}

// Options configures a dispatcher.
type Options struct {
	// Workers is the number of goroutines running systems of one stage.
	// 1 runs every system on the dispatching goroutine.
	// Default: GOMAXPROCS.
	Workers int

	// FailurePolicy decides whether a failing system aborts the tick.
	// Default: FailFast.
	FailurePolicy FailurePolicy

	// Logger receives build and failure logs.
	// Default: slog.Default().
	Logger *slog.Logger
}

// defaultOptions returns sensible defaults.
func defaultOptions() Options {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	return Options{
		Workers:       workers,
		FailurePolicy: FailFast,
	}
}

// Option configures a dispatcher.
type Option func(*Options)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.Workers = n
	}
}

// WithFailurePolicy sets the failure policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *Options) {
		o.FailurePolicy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
