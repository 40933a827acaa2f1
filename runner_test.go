package decs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newCountingRunner(t *testing.T, sys System, opts ...RunnerOption) (*World, *Runner) {
	t.Helper()
	w := NewWorld()
	AddResource(w, &Score{})
	AddResource(w, &Clock{})
	d := mustSetup(t, w, NewDispatcherBuilder(WithLogger(quietLogger())).With(sys, "sys"))
	opts = append([]RunnerOption{WithRunnerLogger(quietLogger())}, opts...)
	return w, NewRunner(w, d, opts...)
}

func TestRunnerMaxTicks(t *testing.T) {
	count := Func(AccessOf(Write[Score](), Read[Clock]()), func(w *World) error {
		s := FetchMut[Score](w)
		s.Points++
		if c := Fetch[Clock](w); c.Tick != uint64(s.Points) {
			t.Errorf("Clock.Tick = %d during tick %d", c.Tick, s.Points)
		}
		return nil
	})
	w, r := newCountingRunner(t, count, WithTickRate(time.Millisecond), WithMaxTicks(5))

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := Fetch[Score](w).Points; got != 5 {
		t.Errorf("ran %d ticks, want 5", got)
	}
	if r.Ticks() != 5 {
		t.Errorf("Ticks() = %d, want 5", r.Ticks())
	}
	if c := Fetch[Clock](w); c.Elapsed <= 0 || c.Elapsed < c.Delta {
		t.Errorf("clock not advanced: %+v", *c)
	}
}

func TestRunnerStopsOnContext(t *testing.T) {
	_, r := newCountingRunner(t, noop(AccessOf()), WithTickRate(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil on cancellation", err)
	}
}

func TestRunnerErrorPolicy(t *testing.T) {
	fail := Func(AccessOf(), func(*World) error { return errBoom })

	t.Run("stop by default", func(t *testing.T) {
		_, r := newCountingRunner(t, fail, WithTickRate(time.Millisecond), WithMaxTicks(10))
		if err := r.Run(context.Background()); !errors.Is(err, errBoom) {
			t.Fatalf("Run = %v, want errBoom", err)
		}
		if r.Ticks() != 1 {
			t.Errorf("Ticks() = %d, want 1", r.Ticks())
		}
	})

	t.Run("continue", func(t *testing.T) {
		failures := 0
		_, r := newCountingRunner(t, fail,
			WithTickRate(time.Millisecond),
			WithMaxTicks(3),
			WithErrorHandler(func(error) error {
				failures++
				return nil
			}))
		if err := r.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if failures != 3 {
			t.Errorf("handler called %d times, want 3", failures)
		}
	})
}

func TestRunnerBeforeTick(t *testing.T) {
	read := Func(AccessOf(Read[Score]()), func(w *World) error {
		if Fetch[Score](w).Points == 0 {
			return errors.New("hook did not run before the tick")
		}
		return nil
	})
	w, r := newCountingRunner(t, read)
	r.BeforeTick(func(w *World) error {
		FetchMut[Score](w).Points++
		return nil
	})

	for range 2 {
		if err := r.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := Fetch[Score](w).Points; got != 2 {
		t.Errorf("hook ran %d times, want 2", got)
	}
}

func TestRunnerSetTickRate(t *testing.T) {
	_, r := newCountingRunner(t, noop(AccessOf()))
	if r.TickRate() != DefaultTickRate {
		t.Fatalf("TickRate() = %v, want default", r.TickRate())
	}
	r.SetTickRate(10 * time.Millisecond)
	r.SetTickRate(0)
	if r.TickRate() != 10*time.Millisecond {
		t.Errorf("TickRate() = %v, want 10ms", r.TickRate())
	}
}

func TestRunnerTicksWhileRunning(t *testing.T) {
	_, r := newCountingRunner(t, noop(AccessOf()), WithTickRate(time.Millisecond), WithMaxTicks(20))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	var last uint64
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			if r.Ticks() != 20 {
				t.Errorf("Ticks() = %d, want 20", r.Ticks())
			}
			return
		default:
		}
		n := r.Ticks()
		if n < last {
			t.Fatalf("Ticks() went backwards: %d after %d", n, last)
		}
		last = n
		time.Sleep(100 * time.Microsecond)
	}
}
