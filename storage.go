package decs

import (
	"iter"
	"reflect"
)

// Storage holds every component of one type, keyed by entity index.
//
// Components live in a dense array with a sparse index on the side, so
// iteration is cache-friendly and follows storage order rather than creation
// order. Each index also records the newest generation the storage has seen,
// which is how a destroyed entity is told apart from a recycled one.
//
// Storage performs no locking. Exclusive access for writers is guaranteed by
// the dispatcher's stage partition.
type Storage[T any] struct {
	sparse []int32
	gens   []uint32
	dense  []Entity
	values []T
}

// NewStorage returns an empty storage. Storages used by systems are created
// through RegisterComponent instead.
func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{}
}

func newSeededStorage[T any](gens []uint32) *Storage[T] {
	s := &Storage[T]{gens: gens, sparse: make([]int32, len(gens))}
	for i := range s.sparse {
		s.sparse[i] = -1
	}
	return s
}

func (s *Storage[T]) grow(idx uint32) {
	for uint32(len(s.sparse)) <= idx {
		s.sparse = append(s.sparse, -1)
		s.gens = append(s.gens, 0)
	}
}

// stale reports whether e belongs to an older generation than the storage
// has already seen for its index.
func (s *Storage[T]) stale(e Entity) bool {
	idx := e.Index()
	return int(idx) < len(s.gens) && e.Generation() < s.gens[idx]
}

// Insert associates v with e, overwriting any prior value. The previous value
// is returned with replaced set to true if there was one.
func (s *Storage[T]) Insert(e Entity, v T) (prev T, replaced bool, err error) {
	if e.IsZero() {
		return prev, false, &StaleEntityError{Entity: e}
	}
	idx := e.Index()
	s.grow(idx)
	gen := e.Generation()
	if gen < s.gens[idx] {
		return prev, false, &StaleEntityError{Entity: e}
	}
	if gen > s.gens[idx] {
		s.removeAt(idx)
		s.gens[idx] = gen
	}

	if pos := s.sparse[idx]; pos >= 0 {
		prev = s.values[pos]
		s.values[pos] = v
		return prev, true, nil
	}
	s.sparse[idx] = int32(len(s.dense))
	s.dense = append(s.dense, e)
	s.values = append(s.values, v)
	return prev, false, nil
}

// Remove detaches and returns the component of e. Absence, including a
// stale entity, is reported with ok set to false.
func (s *Storage[T]) Remove(e Entity) (v T, ok bool) {
	if !s.Has(e) {
		return v, false
	}
	return s.removeAt(e.Index())
}

func (s *Storage[T]) removeAt(idx uint32) (v T, ok bool) {
	if int(idx) >= len(s.sparse) {
		return v, false
	}
	pos := s.sparse[idx]
	if pos < 0 {
		return v, false
	}
	v = s.values[pos]

	last := int32(len(s.dense) - 1)
	lastEntity := s.dense[last]
	s.dense[pos] = lastEntity
	s.values[pos] = s.values[last]
	s.sparse[lastEntity.Index()] = pos

	var zero T
	s.values[last] = zero
	s.dense = s.dense[:last]
	s.values = s.values[:last]
	s.sparse[idx] = -1
	return v, true
}

// Get returns a pointer to the component of e.
//
// A nil pointer with a nil error means e has no component of this type. A
// stale entity yields a *StaleEntityError. The pointer is valid until the
// next Insert or Remove on this storage.
func (s *Storage[T]) Get(e Entity) (*T, error) {
	if s.stale(e) {
		return nil, &StaleEntityError{Entity: e}
	}
	idx := e.Index()
	if int(idx) >= len(s.sparse) {
		return nil, nil
	}
	pos := s.sparse[idx]
	if pos < 0 || s.dense[pos] != e {
		return nil, nil
	}
	return &s.values[pos], nil
}

// GetMut is Get for callers holding write access. It exists so system code
// reads the same way as its declared access.
func (s *Storage[T]) GetMut(e Entity) (*T, error) {
	return s.Get(e)
}

// Has reports whether e currently has a component in this storage.
func (s *Storage[T]) Has(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(s.sparse) {
		return false
	}
	pos := s.sparse[idx]
	return pos >= 0 && s.dense[pos] == e
}

// Len returns the number of stored components.
func (s *Storage[T]) Len() int {
	return len(s.dense)
}

// All yields every (entity, component) pair in storage order. Each call
// starts a fresh pass. The storage must not be modified during iteration
// except through the yielded pointers.
func (s *Storage[T]) All() iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i], &s.values[i]) {
				return
			}
		}
	}
}

// Entities yields every entity holding a component, in storage order.
func (s *Storage[T]) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range s.dense {
			if !yield(e) {
				return
			}
		}
	}
}

// Clear removes every component. Known generations are kept.
func (s *Storage[T]) Clear() {
	for _, e := range s.dense {
		s.sparse[e.Index()] = -1
	}
	clear(s.values)
	s.dense = s.dense[:0]
	s.values = s.values[:0]
}

// invalidate drops e's component and records that its generation is dead.
func (s *Storage[T]) invalidate(e Entity) {
	idx := e.Index()
	s.grow(idx)
	if e.Generation() < s.gens[idx] {
		return
	}
	s.removeAt(idx)
	s.gens[idx] = e.Generation() + 1
}

func (s *Storage[T]) componentType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (*Storage[T]) resourceKind() Kind { return KindComponent }

// componentStorage is the type-erased view the World keeps of every storage.
type componentStorage interface {
	invalidate(e Entity)
	componentType() reflect.Type
}
