package pong

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oriumgames/decs"
)

// InitializePaddles creates the left and right paddles centered vertically
// at both ends of the arena.
func InitializePaddles(w *decs.World) ([2]decs.Entity, error) {
	var out [2]decs.Entity
	paddles := decs.RegisterComponent[Paddle](w)
	transforms := decs.RegisterComponent[Transform](w)

	y := ArenaHeight / 2
	xs := [2]float32{PaddleWidth * 0.5, ArenaWidth - PaddleWidth*0.5}
	for side, x := range xs {
		e := w.CreateEntity()
		if _, _, err := paddles.Insert(e, NewPaddle(Side(side))); err != nil {
			return out, fmt.Errorf("pong: insert paddle: %w", err)
		}
		if _, _, err := transforms.Insert(e, Transform{Translation: mgl32.Vec3{x, y, 0}}); err != nil {
			return out, fmt.Errorf("pong: insert transform: %w", err)
		}
		out[side] = e
	}
	return out, nil
}

// InitializeCamera creates a camera covering the whole arena, with the
// origin in the bottom left corner.
func InitializeCamera(w *decs.World) (decs.Entity, error) {
	cameras := decs.RegisterComponent[Camera](w)
	e := w.CreateEntity()
	cam := Camera{
		Projection: mgl32.Ortho(0, ArenaWidth, 0, ArenaHeight, -1, 1),
		View:       mgl32.Translate3D(0, 0, -1),
	}
	if _, _, err := cameras.Insert(e, cam); err != nil {
		return 0, fmt.Errorf("pong: insert camera: %w", err)
	}
	return e, nil
}
