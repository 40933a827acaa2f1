package decs

import (
	"iter"
	"strconv"
	"sync"
)

// Entity is an opaque handle to a single simulation object.
// The low 32 bits hold the index, the high 32 bits the generation.
// The zero Entity is never allocated.
type Entity uint64

const indexBits = 32

func makeEntity(index, gen uint32) Entity {
	return Entity(uint64(gen)<<indexBits | uint64(index))
}

// Index returns the slot index of the entity. Indices are recycled.
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation returns the generation of the entity's index.
func (e Entity) Generation() uint32 {
	return uint32(uint64(e) >> indexBits)
}

// IsZero reports whether e is the zero Entity.
func (e Entity) IsZero() bool {
	return e == 0
}

// String returns "index:generation".
func (e Entity) String() string {
	return strconv.FormatUint(uint64(e.Index()), 10) + ":" + strconv.FormatUint(uint64(e.Generation()), 10)
}

// Entities allocates and recycles entity identifiers.
//
// Entities is itself a resource of the World. A system that creates or
// deletes entities during a tick must declare Write[Entities].
type Entities struct {
	// gens holds the current generation of every index ever allocated.
	gens  []uint32
	alive []bool
	free  []uint32
	count int

	// pending holds deletions requested during a tick.
	pendingMu sync.Mutex
	pending   []Entity
}

func newEntities() *Entities {
	return &Entities{}
}

// Create allocates a fresh entity, reusing a freed index if one is available.
func (es *Entities) Create() Entity {
	var idx uint32
	if n := len(es.free); n > 0 {
		idx = es.free[n-1]
		es.free = es.free[:n-1]
	} else {
		idx = uint32(len(es.gens))
		es.gens = append(es.gens, 1)
		es.alive = append(es.alive, false)
	}
	es.alive[idx] = true
	es.count++
	return makeEntity(idx, es.gens[idx])
}

// Alive reports whether e refers to a live entity of the current generation.
func (es *Entities) Alive(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(es.gens) {
		return false
	}
	return es.alive[idx] && es.gens[idx] == e.Generation()
}

// Delete queues e for destruction at the next World.Maintain.
// It is the way for a running system to destroy an entity.
func (es *Entities) Delete(e Entity) error {
	if !es.Alive(e) {
		return &StaleEntityError{Entity: e}
	}
	es.pendingMu.Lock()
	es.pending = append(es.pending, e)
	es.pendingMu.Unlock()
	return nil
}

// Len returns the number of live entities.
func (es *Entities) Len() int {
	return es.count
}

// All yields every live entity in index order.
func (es *Entities) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i, ok := range es.alive {
			if !ok {
				continue
			}
			if !yield(makeEntity(uint32(i), es.gens[i])) {
				return
			}
		}
	}
}

// kill frees e's index and bumps its generation. It reports false for a
// stale or already destroyed entity.
func (es *Entities) kill(e Entity) bool {
	if !es.Alive(e) {
		return false
	}
	idx := e.Index()
	es.alive[idx] = false
	es.gens[idx]++
	es.free = append(es.free, idx)
	es.count--
	return true
}

// takePending returns and clears the deletion queue.
func (es *Entities) takePending() []Entity {
	es.pendingMu.Lock()
	out := es.pending
	es.pending = nil
	es.pendingMu.Unlock()
	return out
}

// generations returns a copy of the generation table, used to seed storages
// registered after entities already came and went.
func (es *Entities) generations() []uint32 {
	out := make([]uint32, len(es.gens))
	copy(out, es.gens)
	return out
}

func (*Entities) resourceKind() Kind { return KindEntities }
