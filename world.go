package decs

import (
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
)

// World owns the entity registry, one Storage per registered component type
// and every other shared resource, including event channels.
//
// Initialization order is: register components and resources, build and set
// up the dispatcher, then run ticks. Registration is not allowed while a tick
// is running since resources are looked up without locks.
type World struct {
	id uuid.UUID

	entities *Entities

	// resources maps a ResourceID to a pointer to the resource.
	resources map[ResourceID]any

	// storages lists every component storage for entity destruction.
	storages []componentStorage

	started     atomic.Bool
	dispatching atomic.Bool
}

// worldAttacher is implemented by resources that need a back reference to
// the world they were added to.
type worldAttacher interface {
	attach(w *World)
}

// NewWorld creates an empty world.
func NewWorld() *World {
	w := &World{
		id:        uuid.New(),
		entities:  newEntities(),
		resources: make(map[ResourceID]any),
	}
	w.resources[resourceID[Entities]()] = w.entities
	return w
}

// ID returns the world's identity, used in logs.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Entities returns the entity registry.
func (w *World) Entities() *Entities {
	return w.entities
}

// CreateEntity allocates a fresh entity.
func (w *World) CreateEntity() Entity {
	return w.entities.Create()
}

// IsAlive reports whether e is live.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.Alive(e)
}

// DestroyEntity removes e from every component storage and invalidates its
// generation. Subsequent use of e fails with a *StaleEntityError.
func (w *World) DestroyEntity(e Entity) error {
	w.mustNotDispatch("DestroyEntity")
	return w.destroy(e)
}

func (w *World) destroy(e Entity) error {
	if !w.entities.Alive(e) {
		return &StaleEntityError{Entity: e}
	}
	for _, s := range w.storages {
		s.invalidate(e)
	}
	w.entities.kill(e)
	return nil
}

// Maintain applies the deletions queued with Entities.Delete and returns how
// many entities were destroyed. The dispatcher calls it after every tick.
func (w *World) Maintain() int {
	n := 0
	for _, e := range w.entities.takePending() {
		if w.destroy(e) == nil {
			n++
		}
	}
	return n
}

// Started reports whether the world has been dispatched at least once.
func (w *World) Started() bool {
	return w.started.Load()
}

func (w *World) mustNotDispatch(op string) {
	if w.dispatching.Load() {
		panic("decs: " + op + " called while a tick is running")
	}
}

func (w *World) insert(id ResourceID, res any) {
	w.mustNotDispatch("resource registration")
	if _, exists := w.resources[id]; !exists {
		if s, ok := res.(componentStorage); ok {
			w.storages = append(w.storages, s)
		}
	}
	w.resources[id] = res
	if a, ok := res.(worldAttacher); ok {
		a.attach(w)
	}
}

func (w *World) lookup(id ResourceID) (any, bool) {
	res, ok := w.resources[id]
	return res, ok
}

func (w *World) has(id ResourceID) bool {
	_, ok := w.resources[id]
	return ok
}

// RegisterComponent adds the storage for component type T. It must be called
// before any system reads or writes T. Registering twice is a no-op that
// returns the existing storage.
func RegisterComponent[T any](w *World) *Storage[T] {
	id := resourceID[Storage[T]]()
	if res, ok := w.lookup(id); ok {
		return res.(*Storage[T])
	}
	s := newSeededStorage[T](w.entities.generations())
	w.insert(id, s)
	return s
}

// AddResource inserts res as the resource of type R, replacing any previous
// one. Component storages must go through RegisterComponent instead.
func AddResource[R any](w *World, res *R) {
	if res == nil {
		panic("decs: nil resource")
	}
	id := resourceID[R]()
	if ResourceKind(id) == KindComponent {
		if _, ok := w.lookup(id); ok {
			panic("decs: component storage " + ResourceName(id) + " already registered")
		}
	}
	w.insert(id, res)
}

// AddChannel inserts an EventChannel[T] if the world has none and returns
// the world's channel.
func AddChannel[T any](w *World) *EventChannel[T] {
	id := resourceID[EventChannel[T]]()
	if res, ok := w.lookup(id); ok {
		return res.(*EventChannel[T])
	}
	c := NewEventChannel[T]()
	w.insert(id, c)
	return c
}

// HasResource reports whether the world holds a resource of type R.
func HasResource[R any](w *World) bool {
	return w.has(resourceID[R]())
}

// TryFetch returns the resource of type R if present.
func TryFetch[R any](w *World) (*R, bool) {
	res, ok := w.lookup(resourceID[R]())
	if !ok {
		return nil, false
	}
	return res.(*R), true
}

// Fetch returns the resource of type R for reading.
//
// Exclusivity is cooperative: the dispatcher never runs a writer of R
// alongside another accessor of R. Fetching a resource that was never added
// panics with an *UnregisteredComponentError; Dispatcher.Setup reports the
// same condition as an error before the first tick.
func Fetch[R any](w *World) *R {
	id := resourceID[R]()
	res, ok := w.lookup(id)
	if !ok {
		panic(&UnregisteredComponentError{Type: reflect.TypeFor[R](), Kind: ResourceKind(id)})
	}
	return res.(*R)
}

// FetchMut returns the resource of type R for writing. See Fetch.
func FetchMut[R any](w *World) *R {
	return Fetch[R](w)
}

// Components returns the storage of component type T.
func Components[T any](w *World) *Storage[T] {
	return Fetch[Storage[T]](w)
}

// Channel returns the event channel of type T.
func Channel[T any](w *World) *EventChannel[T] {
	return Fetch[EventChannel[T]](w)
}
