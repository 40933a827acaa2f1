package decs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTickRate is the interval between ticks of a Runner (20 TPS).
const DefaultTickRate = 50 * time.Millisecond

// Runner drives a dispatcher on a fixed tick rate.
//
// Between two ticks, and only there, the runner updates the Clock resource
// and runs the BeforeTick hooks. Hooks are the safe point for host code to
// mutate the world, e.g. to spawn entities or swap a resource.
type Runner struct {
	world *World
	disp  *Dispatcher
	clock *Clock
	log   *slog.Logger

	tickRate atomic.Int64
	maxTicks uint64

	hooksMu sync.Mutex
	hooks   []func(w *World) error

	onError func(err error) error

	running  atomic.Bool
	last     time.Time
	executed atomic.Uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTickRate sets the interval between ticks.
func WithTickRate(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.tickRate.Store(int64(d))
		}
	}
}

// WithMaxTicks stops the runner after n ticks. 0 means no limit.
func WithMaxTicks(n uint64) RunnerOption {
	return func(r *Runner) {
		r.maxTicks = n
	}
}

// WithErrorHandler sets the function deciding what happens when a tick
// fails. Returning nil keeps the runner going; returning an error stops it
// and makes Run return that error. By default every failure stops the
// runner.
func WithErrorHandler(fn func(err error) error) RunnerOption {
	return func(r *Runner) {
		r.onError = fn
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner creates a runner for d over w. A Clock resource is added to w
// if missing. d must already be set up.
func NewRunner(w *World, d *Dispatcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		world:   w,
		disp:    d,
		log:     d.log,
		onError: func(err error) error { return err },
	}
	r.tickRate.Store(int64(DefaultTickRate))
	for _, opt := range opts {
		opt(r)
	}

	clock, ok := TryFetch[Clock](w)
	if !ok {
		clock = &Clock{}
		AddResource(w, clock)
	}
	r.clock = clock
	return r
}

// TickRate returns the current interval between ticks.
func (r *Runner) TickRate() time.Duration {
	return time.Duration(r.tickRate.Load())
}

// SetTickRate changes the interval between ticks. It takes effect after the
// current tick and may be called from any goroutine.
func (r *Runner) SetTickRate(d time.Duration) {
	if d <= 0 {
		return
	}
	r.tickRate.Store(int64(d))
}

// BeforeTick registers a hook run before every tick, in registration order.
// A hook error is handled like a tick failure.
func (r *Runner) BeforeTick(fn func(w *World) error) {
	r.hooksMu.Lock()
	r.hooks = append(r.hooks, fn)
	r.hooksMu.Unlock()
}

// Ticks returns the number of ticks the runner executed.
func (r *Runner) Ticks() uint64 {
	return r.executed.Load()
}

// Step runs the hooks and one tick immediately.
func (r *Runner) Step() error {
	return r.step(time.Now())
}

func (r *Runner) step(now time.Time) error {
	r.hooksMu.Lock()
	hooks := r.hooks
	r.hooksMu.Unlock()
	for _, fn := range hooks {
		if err := fn(r.world); err != nil {
			return err
		}
	}

	var delta time.Duration
	if !r.last.IsZero() {
		delta = now.Sub(r.last)
	}
	r.last = now
	r.clock.advance(r.disp.Tick()+1, delta)

	err := r.disp.Dispatch(r.world)
	r.executed.Add(1)
	return err
}

// Run ticks until ctx is done, the tick limit is reached or the error
// handler stops it. It returns nil when stopped by ctx or the tick limit.
func (r *Runner) Run(ctx context.Context) error {
	if r.running.Swap(true) {
		return ErrDispatchInProgress
	}
	defer r.running.Store(false)

	rate := r.TickRate()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	r.log.Info("decs: runner started", "world", r.world.ID(), "tick_rate", rate)
	defer func() {
		r.log.Info("decs: runner stopped", "world", r.world.ID(), "ticks", r.executed.Load())
	}()

	for {
		if r.maxTicks > 0 && r.executed.Load() >= r.maxTicks {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			if err := r.step(now); err != nil {
				if herr := r.onError(err); herr != nil {
					return herr
				}
				r.log.Warn("decs: tick failed, continuing", "tick", r.disp.Tick(), "error", err)
			}
		}

		if next := r.TickRate(); next != rate {
			rate = next
			ticker.Reset(rate)
			r.log.Debug("decs: tick rate changed", "tick_rate", rate)
		}
	}
}
