package decs

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func mustReader[T any](t *testing.T, c *EventChannel[T]) *ReaderID[T] {
	t.Helper()
	r, err := c.RegisterReader()
	if err != nil {
		t.Fatalf("RegisterReader: %v", err)
	}
	return r
}

func TestEventChannelTwoReaders(t *testing.T) {
	c := NewEventChannel[Ping]()
	r1 := mustReader(t, c)
	r2 := mustReader(t, c)

	c.SingleWrite(Ping{N: 1})

	for i, r := range []*ReaderID[Ping]{r1, r2} {
		got := c.ReadAll(r)
		if len(got) != 1 || got[0].N != 1 {
			t.Errorf("reader %d: got %v, want [{1}]", i, got)
		}
	}
	if got := c.ReadAll(r1); len(got) != 0 {
		t.Errorf("third read of r1: got %v, want none", got)
	}
}

func TestEventChannelReaderStartsAtHead(t *testing.T) {
	c := NewEventChannel[Ping]()
	early := mustReader(t, c)
	c.IterWrite(Ping{1}, Ping{2})
	late := mustReader(t, c)
	c.SingleWrite(Ping{3})

	if got := c.ReadAll(late); !slices.Equal(got, []Ping{{3}}) {
		t.Errorf("late reader: %v, want [{3}]", got)
	}
	if got := c.ReadAll(early); !slices.Equal(got, []Ping{{1}, {2}, {3}}) {
		t.Errorf("early reader: %v, want [{1} {2} {3}]", got)
	}
}

func TestEventChannelNoReadersDiscards(t *testing.T) {
	c := NewEventChannel[Ping]()
	for i := range 100 {
		c.SingleWrite(Ping{i})
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d without readers, want 0", c.Len())
	}
	r := mustReader(t, c)
	if got := c.ReadAll(r); len(got) != 0 {
		t.Errorf("new reader saw discarded events: %v", got)
	}
}

func TestEventChannelCompaction(t *testing.T) {
	c := NewEventChannel[Ping]()
	fast := mustReader(t, c)
	slow := mustReader(t, c)

	for i := range 10 {
		c.SingleWrite(Ping{i})
	}
	c.ReadAll(fast)
	if c.Len() != 10 {
		t.Fatalf("Len() = %d, slow reader should pin all 10", c.Len())
	}
	if lag := c.Lag(slow); lag != 10 {
		t.Errorf("Lag(slow) = %d, want 10", lag)
	}

	c.ReadAll(slow)
	c.SingleWrite(Ping{10})
	if c.Len() != 1 {
		t.Errorf("Len() = %d after both readers drained, want 1", c.Len())
	}

	c.RemoveReader(slow)
	c.ReadAll(fast)
	c.Compact()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Compact, want 0", c.Len())
	}
	if c.Readers() != 1 {
		t.Errorf("Readers() = %d, want 1", c.Readers())
	}
}

func TestEventChannelRemoveReaderReleasesHistory(t *testing.T) {
	c := NewEventChannel[Ping]()
	keep := mustReader(t, c)
	stuck := mustReader(t, c)
	c.IterWrite(Ping{1}, Ping{2}, Ping{3})
	c.ReadAll(keep)

	c.RemoveReader(stuck)
	if c.Len() != 0 {
		t.Errorf("Len() = %d after removing the only lagging reader", c.Len())
	}
	if got := c.ReadAll(stuck); len(got) != 0 {
		t.Errorf("removed reader read %v", got)
	}
	c.RemoveReader(stuck)
}

func TestEventChannelBreakLeavesRest(t *testing.T) {
	c := NewEventChannel[Ping]()
	r := mustReader(t, c)
	c.IterWrite(Ping{1}, Ping{2}, Ping{3})

	for ev := range c.Read(r) {
		if ev.N == 1 {
			break
		}
	}
	if got := c.ReadAll(r); !slices.Equal(got, []Ping{{2}, {3}}) {
		t.Errorf("after break: %v, want [{2} {3}]", got)
	}
}

func TestEventChannelForeignReaderPanics(t *testing.T) {
	a := NewEventChannel[Ping]()
	b := NewEventChannel[Ping]()
	r := mustReader(t, a)
	defer func() {
		if recover() == nil {
			t.Fatal("reading another channel's cursor did not panic")
		}
	}()
	b.ReadAll(r)
}

func TestEventChannelZeroValue(t *testing.T) {
	var c EventChannel[Ping]
	r := mustReader(t, &c)
	c.SingleWrite(Ping{1})
	if got := c.ReadAll(r); len(got) != 1 {
		t.Errorf("zero-value channel: %v", got)
	}
}

func TestEventChannelReaderAfterStart(t *testing.T) {
	w := NewWorld()
	c := AddChannel[Ping](w)
	if _, err := c.RegisterReader(); err != nil {
		t.Fatalf("RegisterReader before start: %v", err)
	}

	d := mustSetup(t, w, NewDispatcherBuilder(WithLogger(quietLogger())))
	if err := d.Dispatch(w); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RegisterReader(); !errors.Is(err, ErrReaderAfterStart) {
		t.Errorf("RegisterReader after start = %v, want ErrReaderAfterStart", err)
	}
}

// Interleaves random batches of writes with partial reads and checks every
// reader observes exactly the written sequence.
func TestEventChannelNoDuplicatesNoOmissions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c := NewEventChannel[Ping]()
	readers := []*ReaderID[Ping]{mustReader(t, c), mustReader(t, c), mustReader(t, c)}
	seen := make([][]int, len(readers))

	next := 0
	for range 500 {
		for range rng.IntN(5) {
			c.SingleWrite(Ping{next})
			next++
		}
		for i, r := range readers {
			if rng.IntN(3) == 0 {
				continue
			}
			limit := rng.IntN(8)
			n := 0
			for ev := range c.Read(r) {
				seen[i] = append(seen[i], ev.N)
				n++
				if n >= limit {
					break
				}
			}
		}
	}
	for i, r := range readers {
		for ev := range c.Read(r) {
			seen[i] = append(seen[i], ev.N)
		}
	}

	for i, got := range seen {
		if len(got) != next {
			t.Fatalf("reader %d saw %d events, want %d", i, len(got), next)
		}
		for j, n := range got {
			if n != j {
				t.Fatalf("reader %d: event %d is %d", i, j, n)
			}
		}
	}
	if c.Len() > 0 {
		c.Compact()
		if c.Len() != 0 {
			t.Errorf("Len() = %d after all readers drained", c.Len())
		}
	}
}

func BenchmarkEventChannelWriteRead(b *testing.B) {
	c := NewEventChannel[Ping]()
	r, _ := c.RegisterReader()
	for i := 0; b.Loop(); i++ {
		c.SingleWrite(Ping{i})
		for range c.Read(r) {
		}
	}
}
