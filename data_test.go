package decs

import (
	"errors"
	"testing"
)

type moveData struct {
	Positions  *Storage[Position] `decs:"mut"`
	Velocities *Storage[Velocity]
	Gravity    *Gravity `decs:"res"`
	Entities   *Entities
	ticks      int
}

type pingRecvData struct {
	Pings  *EventChannel[Ping]
	Cursor *ReaderID[Ping] `decs:"reader"`
	got    []int
}

type optionalData struct {
	Score  *Score             `decs:"res,opt"`
	Health *Storage[Health]   `decs:"opt,mut"`
	Ignore *Storage[Position] `decs:"-"`
}

func TestAnalyzeDataAccess(t *testing.T) {
	sys := NewData(func(*moveData) error { return nil })
	a := sys.Access()

	writes, reads := a.Writes(), a.Reads()
	if !writes.Has(IDOf[Storage[Position]]()) {
		t.Error("mut storage not written")
	}
	for _, id := range []ResourceID{IDOf[Storage[Velocity]](), IDOf[Gravity](), IDOf[Entities]()} {
		if !reads.Has(id) {
			t.Errorf("%s not read", ResourceName(id))
		}
	}
	if n := len(a.Requirements()); n != 4 {
		t.Errorf("got %d requirements, want 4 (payload fields ignored)", n)
	}
}

func TestAnalyzeDataTags(t *testing.T) {
	sys := NewData(func(*optionalData) error { return nil })
	reqs := sys.Access().Requirements()
	if len(reqs) != 2 {
		t.Fatalf("requirements = %v, want Score and Health only", reqs)
	}
	for _, r := range reqs {
		if !r.Optional {
			t.Errorf("%v should be optional", r)
		}
	}
	w := sys.Access().Writes()
	if !w.Has(IDOf[Storage[Health]]()) {
		t.Error("opt,mut storage not written")
	}
}

func TestNewDataRejectsNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewData[int] did not panic")
		}
	}()
	NewData(func(*int) error { return nil })
}

func TestDataInjectsAndKeepsState(t *testing.T) {
	w := NewWorld()
	pos := RegisterComponent[Position](w)
	vel := RegisterComponent[Velocity](w)
	AddResource(w, &Gravity{G: -1})
	e := w.CreateEntity()
	mustInsert(t, pos, e, Position{})
	mustInsert(t, vel, e, Velocity{X: 1})

	sys := NewData(func(d *moveData) error {
		d.ticks++
		for row := range Join2(d.Positions, d.Velocities) {
			row.A.X += row.B.X
			row.A.Y += d.Gravity.G
		}
		return nil
	})

	for range 2 {
		if err := sys.Run(w); err != nil {
			t.Fatal(err)
		}
	}
	if sys.State().ticks != 2 {
		t.Errorf("ticks = %d, want 2", sys.State().ticks)
	}
	if p, _ := pos.Get(e); *p != (Position{2, -2}) {
		t.Errorf("position = %v, want {2 -2}", *p)
	}
}

func TestDataMissingResource(t *testing.T) {
	w := NewWorld()
	sys := NewData(func(*moveData) error { return nil })
	if err := sys.Run(w); !errors.Is(err, ErrUnregisteredComponent) {
		t.Errorf("Run = %v, want ErrUnregisteredComponent", err)
	}
}

func TestDataOptionalMissingIsNil(t *testing.T) {
	w := NewWorld()
	called := false
	sys := NewData(func(d *optionalData) error {
		called = true
		if d.Score != nil || d.Health != nil || d.Ignore != nil {
			t.Error("optional fields should be nil")
		}
		return nil
	})
	if err := sys.Run(w); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("system did not run")
	}
}

func TestDataSetupRegistersReader(t *testing.T) {
	w := NewWorld()
	hooked := false
	sys := NewData(func(d *pingRecvData) error {
		for ev := range d.Pings.Read(d.Cursor) {
			d.got = append(d.got, ev.N)
		}
		return nil
	}).OnSetup(func(d *pingRecvData, _ *World) error {
		hooked = d.Cursor != nil
		return nil
	})

	if err := sys.Setup(w); err != nil {
		t.Fatal(err)
	}
	if !hooked {
		t.Fatal("setup hook ran before the reader was registered")
	}
	c, ok := TryFetch[EventChannel[Ping]](w)
	if !ok {
		t.Fatal("setup did not add the missing channel")
	}
	if c.Readers() != 1 {
		t.Fatalf("Readers() = %d, want 1", c.Readers())
	}

	c.SingleWrite(Ping{N: 4})
	if err := sys.Run(w); err != nil {
		t.Fatal(err)
	}
	if got := sys.State().got; len(got) != 1 || got[0] != 4 {
		t.Errorf("got %v, want [4]", got)
	}

	sys.Dispose(w)
	if c.Readers() != 0 {
		t.Errorf("Readers() = %d after Dispose", c.Readers())
	}
	if sys.State().Cursor != nil {
		t.Error("cursor field not cleared")
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want TagInfo
	}{
		{"", TagInfo{}},
		{"mut", TagInfo{Mutable: true}},
		{"opt, mut", TagInfo{Optional: true, Mutable: true}},
		{"res,mut", TagInfo{Resource: true, Mutable: true}},
		{"reader", TagInfo{Reader: true}},
		{"-", TagInfo{Skip: true}},
		{"bogus", TagInfo{}},
	}
	for _, tt := range tests {
		if got := parseTag(tt.tag); got != tt.want {
			t.Errorf("parseTag(%q) = %+v, want %+v", tt.tag, got, tt.want)
		}
	}
}
