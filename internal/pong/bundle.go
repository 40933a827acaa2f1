package pong

import (
	"fmt"
	"log/slog"

	"github.com/oriumgames/decs"
)

// Bundle registers the pong components, resources, entities and systems.
type Bundle struct {
	Input    InputHandler
	Settings Settings
	Logger   *slog.Logger
}

// Build implements decs.Bundle.
func (b Bundle) Build(w *decs.World, db *decs.DispatcherBuilder) error {
	settings := b.Settings
	decs.AddResource(w, &Input{Handler: b.Input})
	decs.AddResource(w, &settings)
	decs.AddResource(w, NewMoveLog(b.Logger))
	decs.AddResource(w, &Frame{})
	decs.AddChannel[PaddleMoved](w)

	if _, err := InitializePaddles(w); err != nil {
		return fmt.Errorf("pong: paddles: %w", err)
	}
	if _, err := InitializeCamera(w); err != nil {
		return fmt.Errorf("pong: camera: %w", err)
	}

	db.With(NewPaddleSystem(), PaddleSystemName).
		With(NewMoveLogSystem(), MoveLogSystemName).
		WithLocal(NewFrameSystem(), FrameSystemName)
	return nil
}
