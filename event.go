package decs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// EventChannel is a typed, multi-reader broadcast log.
//
// Writers append with SingleWrite. Each consumer owns a ReaderID cursor and
// sees every event written after its registration exactly once. Events that
// every live cursor has passed are discarded; a channel without readers keeps
// no history at all.
//
// A cursor that is never drained pins every event after it. Drop unused
// cursors with RemoveReader.
//
// Readers holding distinct cursors may read concurrently. Writing,
// registering and removing readers require exclusive access, which the
// dispatcher provides to systems declaring Write on the channel.
type EventChannel[T any] struct {
	id uuid.UUID

	// events[0] has absolute sequence number base.
	events []T
	base   uint64

	readers    map[uint32]*ReaderID[T]
	nextReader uint32

	// started is the owning world's first-dispatch flag, nil when detached.
	started *atomic.Bool
}

// ReaderID is a cursor into one EventChannel. It must be owned by exactly one
// consumer and only moves forward.
type ReaderID[T any] struct {
	channel uuid.UUID
	id      uint32
	pos     atomic.Uint64
	removed atomic.Bool
}

// NewEventChannel returns an empty channel.
func NewEventChannel[T any]() *EventChannel[T] {
	return &EventChannel[T]{
		id:      uuid.New(),
		readers: make(map[uint32]*ReaderID[T]),
	}
}

// ID returns the channel's identity.
func (c *EventChannel[T]) ID() uuid.UUID {
	return c.id
}

func (c *EventChannel[T]) head() uint64 {
	return c.base + uint64(len(c.events))
}

// SingleWrite appends one event. Amortized O(1).
func (c *EventChannel[T]) SingleWrite(ev T) {
	if len(c.readers) == 0 {
		c.base++
		return
	}
	c.events = append(c.events, ev)
	c.compact()
}

// IterWrite appends every event in order.
func (c *EventChannel[T]) IterWrite(evs ...T) {
	if len(c.readers) == 0 {
		c.base += uint64(len(evs))
		return
	}
	c.events = append(c.events, evs...)
	c.compact()
}

// RegisterReader creates a cursor positioned at the current write head.
// The new reader never sees events written before its registration.
func (c *EventChannel[T]) RegisterReader() (*ReaderID[T], error) {
	if c.started != nil && c.started.Load() {
		return nil, ErrReaderAfterStart
	}
	if c.readers == nil {
		c.readers = make(map[uint32]*ReaderID[T])
		c.id = uuid.New()
	}
	r := &ReaderID[T]{channel: c.id, id: c.nextReader}
	c.nextReader++
	r.pos.Store(c.head())
	c.readers[r.id] = r
	return r, nil
}

// RemoveReader drops a cursor and releases the history it pinned.
func (c *EventChannel[T]) RemoveReader(r *ReaderID[T]) {
	c.check(r)
	if r.removed.Swap(true) {
		return
	}
	delete(c.readers, r.id)
	c.compact()
}

// Read yields every event written since r last read, advancing r as each
// event is yielded. Breaking out of the loop leaves the rest unread. Each
// call starts from the cursor's current position.
func (c *EventChannel[T]) Read(r *ReaderID[T]) iter.Seq[T] {
	c.check(r)
	return func(yield func(T) bool) {
		if r.removed.Load() {
			return
		}
		end := c.head()
		for {
			pos := r.pos.Load()
			if pos >= end {
				return
			}
			ev := c.events[pos-c.base]
			r.pos.Store(pos + 1)
			if !yield(ev) {
				return
			}
		}
	}
}

// ReadAll drains r into a slice.
func (c *EventChannel[T]) ReadAll(r *ReaderID[T]) []T {
	return slices.Collect(c.Read(r))
}

// Lag returns the number of events r has not read yet.
func (c *EventChannel[T]) Lag(r *ReaderID[T]) int {
	c.check(r)
	if r.removed.Load() {
		return 0
	}
	return int(c.head() - r.pos.Load())
}

// Len returns the number of retained events.
func (c *EventChannel[T]) Len() int {
	return len(c.events)
}

// Readers returns the number of registered cursors.
func (c *EventChannel[T]) Readers() int {
	return len(c.readers)
}

// Compact discards the prefix every cursor has consumed.
func (c *EventChannel[T]) Compact() {
	c.trim(true)
}

func (c *EventChannel[T]) compact() {
	c.trim(false)
}

// trim drops consumed events. Unless forced it only copies once at least half
// of the buffer is garbage, which keeps writes amortized O(1).
func (c *EventChannel[T]) trim(force bool) {
	low := c.head()
	for _, r := range c.readers {
		if pos := r.pos.Load(); pos < low {
			low = pos
		}
	}
	drop := int(low - c.base)
	if drop == 0 {
		return
	}
	if drop == len(c.events) {
		clear(c.events)
		c.events = c.events[:0]
		c.base = low
		return
	}
	if !force && drop*2 < len(c.events) {
		return
	}
	n := copy(c.events, c.events[drop:])
	clear(c.events[n:])
	c.events = c.events[:n]
	c.base = low
}

func (c *EventChannel[T]) check(r *ReaderID[T]) {
	if r == nil {
		panic("decs: nil reader")
	}
	if r.channel != c.id {
		panic(fmt.Sprintf("decs: reader %d belongs to channel %s, not %s", r.id, r.channel, c.id))
	}
}

func (c *EventChannel[T]) attach(w *World) {
	c.started = &w.started
}

func (*EventChannel[T]) resourceKind() Kind { return KindChannel }

// readerRegistrar is the type-erased reader API used by tag injection.
type readerRegistrar interface {
	registerReaderPtr() (unsafe.Pointer, error)
	removeReaderPtr(p unsafe.Pointer)
}

func (c *EventChannel[T]) registerReaderPtr() (unsafe.Pointer, error) {
	r, err := c.RegisterReader()
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(r), nil
}

func (c *EventChannel[T]) removeReaderPtr(p unsafe.Pointer) {
	c.RemoveReader((*ReaderID[T])(p))
}

// readerChannel returns the channel type a reader belongs to.
func (*ReaderID[T]) readerChannel() reflect.Type {
	return reflect.TypeFor[EventChannel[T]]()
}

type channelReader interface {
	readerChannel() reflect.Type
}

var channelReaderType = reflect.TypeFor[channelReader]()
