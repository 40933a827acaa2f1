package decs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a dispatcher.
type State int32

const (
	// StateReady means the plan is frozen and no tick is running.
	StateReady State = iota
	// StateDispatching means a tick is in progress.
	StateDispatching
	// StateClosed means the dispatcher was closed.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Dispatcher runs a frozen plan of systems once per tick.
//
// Systems within a stage run concurrently on a worker pool; a stage starts
// only after every system of the previous stage returned. Resource safety
// comes from the plan itself: no two systems of a stage conflict, so no lock
// is taken around resource access.
type Dispatcher struct {
	stages []Stage
	locals []*systemEntry
	opts   Options
	log    *slog.Logger

	pool *workerPool

	state   atomic.Int32
	setUp   atomic.Bool
	setupMu sync.Mutex
	tick    atomic.Uint64
}

func newDispatcher(stages []Stage, locals []*systemEntry, opts Options, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		stages: stages,
		locals: locals,
		opts:   opts,
		log:    logger,
	}
}

// State returns the dispatcher's lifecycle state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Tick returns the number of ticks dispatched so far.
func (d *Dispatcher) Tick() uint64 {
	return d.tick.Load()
}

// Stages returns the names of the systems of every stage, in order.
// Local systems are not part of any stage.
func (d *Dispatcher) Stages() [][]string {
	out := make([][]string, len(d.stages))
	for i := range d.stages {
		out[i] = d.stages[i].Names()
	}
	return out
}

// StageOf returns the stage index of the named system, or -1.
func (d *Dispatcher) StageOf(name string) int {
	for i := range d.stages {
		for _, e := range d.stages[i].systems {
			if e.name == name {
				return i
			}
		}
	}
	return -1
}

func (d *Dispatcher) each(fn func(e *systemEntry) error) error {
	for i := range d.stages {
		for _, e := range d.stages[i].systems {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	for _, e := range d.locals {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Setup prepares every system once before the first tick: it calls each
// Setup hook in plan order, then checks that every declared resource exists
// in w. Readers must be registered here; registering one after the first
// tick fails.
func (d *Dispatcher) Setup(w *World) error {
	d.setupMu.Lock()
	defer d.setupMu.Unlock()

	if d.State() == StateClosed {
		return ErrClosed
	}
	if d.setUp.Load() {
		return nil
	}

	err := d.each(func(e *systemEntry) error {
		s, ok := e.system.(Setupper)
		if !ok {
			return nil
		}
		if err := s.Setup(w); err != nil {
			return fmt.Errorf("decs: setup %q: %w", e.name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var missing []error
	_ = d.each(func(e *systemEntry) error {
		for _, r := range e.access.reqs {
			if r.Optional || w.has(r.ID) {
				continue
			}
			missing = append(missing, &UnregisteredComponentError{Type: r.Type, Kind: r.Kind, System: e.name})
		}
		return nil
	})
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	if d.opts.Workers > 1 && d.maxStageWidth() > 1 {
		d.pool = newWorkerPool(d.opts.Workers)
	}
	d.setUp.Store(true)

	d.log.Debug("decs: dispatcher set up", "world", w.ID(), "pooled", d.pool != nil)
	return nil
}

func (d *Dispatcher) maxStageWidth() int {
	width := 0
	for i := range d.stages {
		width = max(width, d.stages[i].Len())
	}
	return width
}

// Dispatch runs one tick: every stage to completion, in order, then the
// local systems, then World.Maintain.
//
// A failing or panicking system yields a *SystemFailure. Under FailFast the
// stages after the failing one are skipped and the failure is returned.
// Under ContinueOnFailure the tick completes and all failures are returned
// joined. Dispatch never retries.
func (d *Dispatcher) Dispatch(w *World) error {
	if d.State() == StateClosed {
		return ErrClosed
	}
	if !d.setUp.Load() {
		return ErrNotSetUp
	}
	if !d.state.CompareAndSwap(int32(StateReady), int32(StateDispatching)) {
		return ErrDispatchInProgress
	}
	defer d.state.CompareAndSwap(int32(StateDispatching), int32(StateReady))

	tick := d.tick.Add(1)
	w.started.Store(true)
	w.dispatching.Store(true)

	var failures []error
	aborted := false
	for i := range d.stages {
		errs := d.runStage(w, &d.stages[i], tick)
		if len(errs) == 0 {
			continue
		}
		failures = append(failures, errs...)
		if d.opts.FailurePolicy == FailFast {
			aborted = true
			d.log.Error("decs: tick aborted",
				"tick", tick,
				"stage", i,
				"skipped_stages", len(d.stages)-i-1,
				"error", errors.Join(errs...))
			break
		}
	}

	if !aborted {
		for _, e := range d.locals {
			if f := d.runSystem(w, e, -1, tick); f != nil {
				failures = append(failures, f)
				if d.opts.FailurePolicy == FailFast {
					aborted = true
					break
				}
				d.logFailure(f)
			}
		}
	}

	w.dispatching.Store(false)
	if aborted {
		// Deletions of an aborted tick are dropped, never carried into the next.
		if n := len(w.entities.takePending()); n > 0 {
			d.log.Debug("decs: deletions dropped", "tick", tick, "count", n)
		}
	} else if n := w.Maintain(); n > 0 {
		d.log.Debug("decs: entities destroyed", "tick", tick, "count", n)
	}

	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	default:
		return errors.Join(failures...)
	}
}

// runStage runs every system of a stage and returns their failures.
func (d *Dispatcher) runStage(w *World, st *Stage, tick uint64) []error {
	if st.Len() == 1 || d.pool == nil {
		var errs []error
		for _, e := range st.systems {
			if f := d.runSystem(w, e, st.index, tick); f != nil {
				errs = append(errs, f)
				if d.opts.FailurePolicy == ContinueOnFailure {
					d.logFailure(f)
				}
			}
		}
		return errs
	}

	results := make([]*SystemFailure, st.Len())
	var wg sync.WaitGroup
	wg.Add(st.Len())
	for i, e := range st.systems {
		i, e := i, e
		job := func() {
			defer wg.Done()
			results[i] = d.runSystem(w, e, st.index, tick)
		}
		if !d.pool.submit(job) {
			// Worker pool full, run inline
			job()
		}
	}
	wg.Wait()

	var errs []error
	for _, f := range results {
		if f == nil {
			continue
		}
		errs = append(errs, f)
		if d.opts.FailurePolicy == ContinueOnFailure {
			d.logFailure(f)
		}
	}
	return errs
}

// runSystem executes a single system with panic recovery.
func (d *Dispatcher) runSystem(w *World, e *systemEntry, stage int, tick uint64) (failure *SystemFailure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &SystemFailure{
				System: e.name,
				Stage:  stage,
				Tick:   tick,
				Panic:  r,
				Stack:  debug.Stack(),
			}
		}
	}()
	if err := e.system.Run(w); err != nil {
		return &SystemFailure{System: e.name, Stage: stage, Tick: tick, Err: err}
	}
	return nil
}

func (d *Dispatcher) logFailure(f *SystemFailure) {
	d.log.Warn("decs: system failed, continuing tick",
		"system", f.System,
		"stage", f.Stage,
		"tick", f.Tick,
		"error", f)
}

// Close disposes every system and stops the worker pool. The dispatcher
// cannot be used afterwards.
func (d *Dispatcher) Close(w *World) error {
	for {
		switch d.State() {
		case StateClosed:
			return nil
		case StateDispatching:
			return ErrDispatchInProgress
		}
		if d.state.CompareAndSwap(int32(StateReady), int32(StateClosed)) {
			break
		}
	}

	if d.setUp.Load() {
		_ = d.each(func(e *systemEntry) error {
			if s, ok := e.system.(Disposer); ok {
				s.Dispose(w)
			}
			return nil
		})
	}
	if d.pool != nil {
		d.pool.stop()
	}
	d.log.Debug("decs: dispatcher closed", "ticks", d.Tick())
	return nil
}
