package decs

import (
	"reflect"
	"strings"
)

// Mode is the way a system accesses a resource.
type Mode uint8

const (
	// ModeRead allows shared access alongside other readers.
	ModeRead Mode = iota
	// ModeWrite requires exclusive access within a stage.
	ModeWrite
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Requirement is one (resource, mode) pair of an access descriptor.
type Requirement struct {
	ID   ResourceID
	Type reflect.Type
	Kind Kind
	Mode Mode

	// Optional requirements are not validated at setup.
	Optional bool
}

func requirement[R any](mode Mode) Requirement {
	id := resourceID[R]()
	return Requirement{
		ID:   id,
		Type: reflect.TypeFor[R](),
		Kind: ResourceKind(id),
		Mode: mode,
	}
}

// Read declares shared access to the resource of type R.
func Read[R any]() Requirement { return requirement[R](ModeRead) }

// Write declares exclusive access to the resource of type R.
func Write[R any]() Requirement { return requirement[R](ModeWrite) }

// ReadStorage declares shared access to the storage of component T.
func ReadStorage[T any]() Requirement { return Read[Storage[T]]() }

// WriteStorage declares exclusive access to the storage of component T.
func WriteStorage[T any]() Requirement { return Write[Storage[T]]() }

// ReadChannel declares read access to the event channel of T.
func ReadChannel[T any]() Requirement { return Read[EventChannel[T]]() }

// WriteChannel declares write access to the event channel of T.
func WriteChannel[T any]() Requirement { return Write[EventChannel[T]]() }

// AsOptional marks the requirement as optional.
func (r Requirement) AsOptional() Requirement {
	r.Optional = true
	return r
}

func (r Requirement) String() string {
	s := r.Mode.String() + "(" + r.Type.String() + ")"
	if r.Optional {
		s += "?"
	}
	return s
}

// Access describes what resources a system reads or writes.
// Used for conflict detection and stage partitioning.
type Access struct {
	reqs   []Requirement
	reads  Bitmask
	writes Bitmask
}

// AccessOf builds an access descriptor. A resource declared both for reading
// and writing counts as written.
func AccessOf(reqs ...Requirement) Access {
	var a Access
	for _, r := range reqs {
		a.add(r)
	}
	return a
}

func (a *Access) add(r Requirement) {
	for i := range a.reqs {
		if a.reqs[i].ID != r.ID {
			continue
		}
		if r.Mode == ModeWrite {
			a.reqs[i].Mode = ModeWrite
			a.reads.Clear(r.ID)
			a.writes.Set(r.ID)
		}
		a.reqs[i].Optional = a.reqs[i].Optional && r.Optional
		return
	}
	a.reqs = append(a.reqs, r)
	if r.Mode == ModeWrite {
		a.writes.Set(r.ID)
	} else {
		a.reads.Set(r.ID)
	}
}

// Merge returns the union of both descriptors.
func (a Access) Merge(other Access) Access {
	out := AccessOf(a.reqs...)
	for _, r := range other.reqs {
		out.add(r)
	}
	return out
}

// Requirements returns the declared (resource, mode) pairs.
func (a Access) Requirements() []Requirement {
	out := make([]Requirement, len(a.reqs))
	copy(out, a.reqs)
	return out
}

// Reads returns the set of resources read but not written.
func (a Access) Reads() Bitmask { return a.reads }

// Writes returns the set of resources written.
func (a Access) Writes() Bitmask { return a.writes }

// Conflicts returns true if both descriptors touch a common resource and at
// least one of them writes it.
func (a Access) Conflicts(other Access) bool {
	return a.writes.ContainsAny(other.writes.Or(other.reads)) ||
		a.reads.ContainsAny(other.writes)
}

// Shared returns the resources that make a and other conflict.
func (a Access) Shared(other Access) Bitmask {
	return a.writes.And(other.writes.Or(other.reads)).Or(a.reads.And(other.writes))
}

func (a Access) String() string {
	parts := make([]string, len(a.reqs))
	for i, r := range a.reqs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
