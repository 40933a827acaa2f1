package decs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// DispatcherBuilder collects systems before the execution plan is frozen.
// Use NewDispatcherBuilder() and chain registration methods.
type DispatcherBuilder struct {
	entries  []*systemEntry
	locals   []*systemEntry
	names    map[string]struct{}
	barriers int
	opts     Options

	// err is the first registration error, reported by Build
	err error
}

// NewDispatcherBuilder creates a new builder.
func NewDispatcherBuilder(opts ...Option) *DispatcherBuilder {
	b := &DispatcherBuilder{
		names: make(map[string]struct{}),
		opts:  defaultOptions(),
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// With registers sys under a unique name. deps lists names of systems that
// must complete before sys starts, independent of resource conflicts.
func (b *DispatcherBuilder) With(sys System, name string, deps ...string) *DispatcherBuilder {
	if !b.register(sys, name) {
		return b
	}
	b.entries = append(b.entries, &systemEntry{
		name:    name,
		system:  sys,
		access:  sys.Access(),
		deps:    slices.Clone(deps),
		barrier: b.barriers,
		index:   len(b.entries),
	})
	return b
}

// WithBarrier makes every system registered afterwards run after every
// system registered before.
func (b *DispatcherBuilder) WithBarrier() *DispatcherBuilder {
	b.barriers++
	return b
}

// WithLocal registers a system that runs on the dispatching goroutine after
// all stages, in registration order. Use it for work bound to the caller's
// thread such as presenting a frame.
func (b *DispatcherBuilder) WithLocal(sys System, name string) *DispatcherBuilder {
	if !b.register(sys, name) {
		return b
	}
	b.locals = append(b.locals, &systemEntry{
		name:   name,
		system: sys,
		access: sys.Access(),
		index:  len(b.locals),
		local:  true,
	})
	return b
}

// Bundle lets a bundle register its resources into w and its systems into
// this builder.
func (b *DispatcherBuilder) Bundle(w *World, bundle Bundle) *DispatcherBuilder {
	if b.err != nil {
		return b
	}
	if err := bundle.Build(w, b); err != nil {
		b.err = fmt.Errorf("decs: bundle: %w", err)
	}
	return b
}

func (b *DispatcherBuilder) register(sys System, name string) bool {
	if b.err != nil {
		return false
	}
	if sys == nil {
		b.err = &SchedulingConflictError{Reason: "nil system", Systems: []string{name}}
		return false
	}
	if name == "" {
		b.err = &SchedulingConflictError{Reason: "system registered without a name"}
		return false
	}
	if _, dup := b.names[name]; dup {
		b.err = &SchedulingConflictError{Reason: "duplicate system name", Systems: []string{name}}
		return false
	}
	b.names[name] = struct{}{}
	return true
}

// Build freezes the registered systems into an execution plan.
func (b *DispatcherBuilder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}

	order, edges, err := b.order()
	if err != nil {
		return nil, err
	}
	stages := layer(b.entries, order, edges)

	logger := b.opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := newDispatcher(stages, b.locals, b.opts, logger)

	logger.Debug("decs: dispatcher built",
		"systems", len(b.entries),
		"local", len(b.locals),
		"stages", len(stages),
		"workers", b.opts.Workers)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		for i := range stages {
			logger.Debug("decs: stage", "index", i, "systems", stages[i].Names())
		}
		logConflicts(logger, stages)
	}

	return d, nil
}

// logConflicts reports, for every staged system, the systems of earlier
// stages it conflicts with and the resources they share.
func logConflicts(logger *slog.Logger, stages []Stage) {
	for i := range stages {
		for _, e := range stages[i].systems {
			for j := range i {
				for _, prev := range stages[j].systems {
					shared := e.access.Shared(prev.access)
					if shared.IsZero() {
						continue
					}
					logger.Debug("decs: systems conflict",
						"system", e.name,
						"stage", i,
						"after", prev.name,
						"resources", shared.Names())
				}
			}
		}
	}
}

// order resolves dependencies and returns a stable topological order of the
// registered systems along with each system's predecessors.
func (b *DispatcherBuilder) order() ([]int, [][]int, error) {
	n := len(b.entries)
	byName := make(map[string]int, n)
	for i, e := range b.entries {
		byName[e.name] = i
	}

	preds := make([][]int, n)
	for i, e := range b.entries {
		for _, dep := range e.deps {
			j, ok := byName[dep]
			if !ok {
				return nil, nil, &SchedulingConflictError{
					Reason:  fmt.Sprintf("unknown dependency %q", dep),
					Systems: []string{e.name},
				}
			}
			if !slices.Contains(preds[i], j) {
				preds[i] = append(preds[i], j)
			}
		}
		for j := 0; j < i; j++ {
			if b.entries[j].barrier < e.barrier && !slices.Contains(preds[i], j) {
				preds[i] = append(preds[i], j)
			}
		}
	}

	indegree := make([]int, n)
	succs := make([][]int, n)
	for i, ps := range preds {
		indegree[i] = len(ps)
		for _, p := range ps {
			succs[p] = append(succs[p], i)
		}
	}

	// Kahn's algorithm, always taking the earliest registered ready system.
	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var cyclic []string
			for i := 0; i < n; i++ {
				if !done[i] {
					cyclic = append(cyclic, b.entries[i].name)
				}
			}
			return nil, nil, &SchedulingConflictError{Reason: "dependency cycle", Systems: cyclic}
		}
		done[next] = true
		order = append(order, next)
		for _, s := range succs[next] {
			indegree[s]--
		}
	}

	return order, preds, nil
}

// layer assigns each system the earliest stage after its explicit
// predecessors and after every conflicting system placed before it.
func layer(entries []*systemEntry, order []int, preds [][]int) []Stage {
	stageOf := make([]int, len(entries))
	placed := make([]int, 0, len(entries))
	last := -1

	for _, i := range order {
		st := 0
		for _, p := range preds[i] {
			st = max(st, stageOf[p]+1)
		}
		for _, j := range placed {
			if entries[i].access.Conflicts(entries[j].access) {
				st = max(st, stageOf[j]+1)
			}
		}
		stageOf[i] = st
		placed = append(placed, i)
		last = max(last, st)
	}

	stages := make([]Stage, last+1)
	for k := range stages {
		stages[k].index = k
	}
	for _, i := range order {
		st := &stages[stageOf[i]]
		st.systems = append(st.systems, entries[i])
	}
	return stages
}
