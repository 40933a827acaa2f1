package pong

import "github.com/go-gl/mathgl/mgl32"

// Arena and paddle dimensions, in world units.
const (
	ArenaWidth   float32 = 100
	ArenaHeight  float32 = 100
	PaddleWidth  float32 = 4
	PaddleHeight float32 = 16
)

// Side is the side of the arena a paddle defends.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "unknown"
	}
}

// Axis returns the name of the input axis controlling the side's paddle.
func (s Side) Axis() string {
	return s.String() + "_paddle"
}

// Paddle marks a paddle entity.
type Paddle struct {
	Side   Side
	Width  float32
	Height float32
}

// NewPaddle returns a paddle of the default size.
func NewPaddle(side Side) Paddle {
	return Paddle{Side: side, Width: PaddleWidth, Height: PaddleHeight}
}

// Transform is the position of an entity in the arena.
type Transform struct {
	Translation mgl32.Vec3
}

// Camera projects arena coordinates to clip space.
type Camera struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}
