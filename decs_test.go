package decs

import (
	"io"
	"log/slog"
	"testing"
)

// Test components and resources shared by the package tests.
type Position struct {
	X, Y float32
}

type Velocity struct {
	X, Y float32
}

type Health struct {
	Current, Max int
}

type Gravity struct {
	G float32
}

type Score struct {
	Points int
}

type Ping struct {
	N int
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustBuild(t *testing.T, b *DispatcherBuilder) *Dispatcher {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func mustSetup(t *testing.T, w *World, b *DispatcherBuilder) *Dispatcher {
	t.Helper()
	d := mustBuild(t, b)
	if err := d.Setup(w); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { _ = d.Close(w) })
	return d
}

func mustInsert[T any](t *testing.T, s *Storage[T], e Entity, v T) {
	t.Helper()
	if _, _, err := s.Insert(e, v); err != nil {
		t.Fatalf("Insert(%v): %v", e, err)
	}
}
