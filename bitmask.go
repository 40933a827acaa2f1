package decs

import (
	"iter"
	"math/bits"
)

// Bitmask is a 256-bit set of resource IDs.
type Bitmask [4]uint64

// Set sets the bit at the given index.
func (m *Bitmask) Set(id ResourceID) {
	m[id/64] |= 1 << (id % 64)
}

// Clear clears the bit at the given index.
func (m *Bitmask) Clear(id ResourceID) {
	m[id/64] &^= 1 << (id % 64)
}

// Has returns true if the bit at the given index is set.
func (m *Bitmask) Has(id ResourceID) bool {
	return m[id/64]&(1<<(id%64)) != 0
}

// ContainsAny returns true if any bit set in other is also set in m.
func (m *Bitmask) ContainsAny(other Bitmask) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}

// IsZero returns true if no bits are set.
func (m *Bitmask) IsZero() bool {
	return m[0] == 0 && m[1] == 0 && m[2] == 0 && m[3] == 0
}

// Or returns a new bitmask with bits set from both m and other.
func (m Bitmask) Or(other Bitmask) Bitmask {
	return Bitmask{
		m[0] | other[0],
		m[1] | other[1],
		m[2] | other[2],
		m[3] | other[3],
	}
}

// And returns a new bitmask with only bits set in both m and other.
func (m Bitmask) And(other Bitmask) Bitmask {
	return Bitmask{
		m[0] & other[0],
		m[1] & other[1],
		m[2] & other[2],
		m[3] & other[3],
	}
}

// Count returns the number of bits set.
func (m *Bitmask) Count() int {
	return bits.OnesCount64(m[0]) +
		bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) +
		bits.OnesCount64(m[3])
}

// IDs yields the set IDs in ascending order.
func (m Bitmask) IDs() iter.Seq[ResourceID] {
	return func(yield func(ResourceID) bool) {
		for word := range m {
			w := m[word]
			for w != 0 {
				bit := bits.TrailingZeros64(w)
				if !yield(ResourceID(word*64 + bit)) {
					return
				}
				w &= w - 1
			}
		}
	}
}

// Names returns the type names of the set IDs, for logs and errors.
func (m Bitmask) Names() []string {
	out := make([]string, 0, m.Count())
	for id := range m.IDs() {
		out = append(out, ResourceName(id))
	}
	return out
}
