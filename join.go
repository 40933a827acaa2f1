package decs

import "iter"

// Row2 is one result of Join2.
type Row2[A, B any] struct {
	Entity Entity
	A      *A
	B      *B
}

// Row3 is one result of Join3.
type Row3[A, B, C any] struct {
	Entity Entity
	A      *A
	B      *B
	C      *C
}

// Join2 yields every entity that has a component in both storages.
// The smaller storage drives the iteration.
func Join2[A, B any](a *Storage[A], b *Storage[B]) iter.Seq[Row2[A, B]] {
	return func(yield func(Row2[A, B]) bool) {
		if a.Len() <= b.Len() {
			for e, av := range a.All() {
				bv, _ := b.Get(e)
				if bv == nil {
					continue
				}
				if !yield(Row2[A, B]{Entity: e, A: av, B: bv}) {
					return
				}
			}
			return
		}
		for e, bv := range b.All() {
			av, _ := a.Get(e)
			if av == nil {
				continue
			}
			if !yield(Row2[A, B]{Entity: e, A: av, B: bv}) {
				return
			}
		}
	}
}

// Join3 yields every entity that has a component in all three storages.
func Join3[A, B, C any](a *Storage[A], b *Storage[B], c *Storage[C]) iter.Seq[Row3[A, B, C]] {
	return func(yield func(Row3[A, B, C]) bool) {
		for row := range Join2(a, b) {
			cv, _ := c.Get(row.Entity)
			if cv == nil {
				continue
			}
			if !yield(Row3[A, B, C]{Entity: row.Entity, A: row.A, B: row.B, C: cv}) {
				return
			}
		}
	}
}
