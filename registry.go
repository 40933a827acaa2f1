package decs

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// ResourceID is a process-wide identifier for a resource type.
// Valid IDs range from 0 to 255.
type ResourceID uint8

// MaxResources is the maximum number of resource types supported.
const MaxResources = 256

// Kind classifies a resource type.
type Kind uint8

const (
	// KindResource is a plain user resource.
	KindResource Kind = iota
	// KindComponent is a *Storage[T].
	KindComponent
	// KindChannel is an *EventChannel[T].
	KindChannel
	// KindEntities is the world's *Entities registry.
	KindEntities
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindComponent:
		return "component"
	case KindChannel:
		return "channel"
	case KindEntities:
		return "entities"
	default:
		return "unknown"
	}
}

// kinded is implemented by pointers to the built-in resource types.
type kinded interface {
	resourceKind() Kind
}

var kindedType = reflect.TypeFor[kinded]()

// resourceRegistry assigns ResourceIDs with lock-free reads.
// Resource types are registered once but looked up on every fetch.
type resourceRegistry struct {
	// ids maps reflect.Type to ResourceID
	ids sync.Map

	// types and kinds are indexed by ResourceID, written once per ID
	types [MaxResources]reflect.Type
	kinds [MaxResources]Kind

	nextID atomic.Uint32
	arrMu  sync.RWMutex
}

var registry = &resourceRegistry{}

// register returns the ID for t, allocating one on first sight.
// t is the resource type itself, not a pointer to it.
func (r *resourceRegistry) register(t reflect.Type) ResourceID {
	if id, ok := r.ids.Load(t); ok {
		return id.(ResourceID)
	}

	n := r.nextID.Add(1) - 1
	if n >= MaxResources {
		panic(fmt.Sprintf("decs: resource type limit exceeded (max %d types)", MaxResources))
	}
	newID := ResourceID(n)

	actual, loaded := r.ids.LoadOrStore(t, newID)
	if loaded {
		// Lost the race; the allocated ID stays unused.
		return actual.(ResourceID)
	}

	kind := KindResource
	if reflect.PointerTo(t).Implements(kindedType) {
		kind = reflect.New(t).Interface().(kinded).resourceKind()
	}

	r.arrMu.Lock()
	r.types[newID] = t
	r.kinds[newID] = kind
	r.arrMu.Unlock()

	return newID
}

func (r *resourceRegistry) typeOf(id ResourceID) reflect.Type {
	r.arrMu.RLock()
	defer r.arrMu.RUnlock()
	return r.types[id]
}

func (r *resourceRegistry) kindOf(id ResourceID) Kind {
	r.arrMu.RLock()
	defer r.arrMu.RUnlock()
	return r.kinds[id]
}

// resourceID returns the ResourceID for type R, registering it if needed.
func resourceID[R any]() ResourceID {
	return registry.register(reflect.TypeFor[R]())
}

// IDOf returns the ResourceID of resource type R.
func IDOf[R any]() ResourceID {
	return resourceID[R]()
}

// ResourceName returns a readable name for the resource with the given ID.
func ResourceName(id ResourceID) string {
	t := registry.typeOf(id)
	if t == nil {
		return fmt.Sprintf("resource#%d", id)
	}
	return t.String()
}

// ResourceKind returns the kind of the resource with the given ID.
func ResourceKind(id ResourceID) Kind {
	return registry.kindOf(id)
}

// RegisteredResourceCount returns the number of resource types seen so far.
func RegisteredResourceCount() int {
	return int(registry.nextID.Load())
}
