package pong

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/oriumgames/decs"
)

// Names under which the bundle registers its systems.
const (
	PaddleSystemName  = "paddle_system"
	MoveLogSystemName = "move_log_system"
	FrameSystemName   = "frame_system"
)

// PaddleMoved is written every time a paddle changes height.
type PaddleMoved struct {
	Entity decs.Entity
	Side   Side
	From   float32
	To     float32
}

// PaddleData is the data of the paddle system.
type PaddleData struct {
	Transforms *decs.Storage[Transform] `decs:"mut"`
	Paddles    *decs.Storage[Paddle]
	Input      *Input                          `decs:"res"`
	Settings   *Settings                       `decs:"res"`
	Moves      *decs.EventChannel[PaddleMoved] `decs:"mut"`
}

// NewPaddleSystem returns the system moving each paddle by its input axis
// scaled by Settings.PaddleSpeed.
func NewPaddleSystem() *decs.Data[PaddleData] {
	return decs.NewData(func(d *PaddleData) error {
		half := PaddleHeight / 2
		for row := range decs.Join2(d.Paddles, d.Transforms) {
			amount, ok := d.Input.AxisValue(row.A.Side.Axis())
			if !ok {
				continue
			}
			from := row.B.Translation.Y()
			to := from + d.Settings.PaddleSpeed*amount
			if d.Settings.Clamp {
				to = mgl32.Clamp(to, half, ArenaHeight-half)
			}
			if to == from {
				continue
			}
			row.B.Translation[1] = to
			d.Moves.SingleWrite(PaddleMoved{Entity: row.Entity, Side: row.A.Side, From: from, To: to})
		}
		return nil
	})
}

// MoveLog counts paddle moves.
type MoveLog struct {
	Total  int
	BySide [2]int
	Last   [2]float32

	logger *slog.Logger
}

// NewMoveLog returns an empty log writing to logger.
func NewMoveLog(logger *slog.Logger) *MoveLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MoveLog{logger: logger}
}

// MoveLogData is the data of the move log system.
type MoveLogData struct {
	Moves  *decs.EventChannel[PaddleMoved]
	Cursor *decs.ReaderID[PaddleMoved] `decs:"reader"`
	Log    *MoveLog                    `decs:"res,mut"`
}

// NewMoveLogSystem returns the system draining PaddleMoved events into the
// MoveLog resource.
func NewMoveLogSystem() *decs.Data[MoveLogData] {
	return decs.NewData(func(d *MoveLogData) error {
		for ev := range d.Moves.Read(d.Cursor) {
			d.Log.Total++
			d.Log.BySide[ev.Side]++
			d.Log.Last[ev.Side] = ev.To
			d.Log.logger.Debug("pong: paddle moved",
				"entity", ev.Entity,
				"side", ev.Side,
				"from", ev.From,
				"to", ev.To)
		}
		return nil
	})
}

// Frame holds the clip-space position of each paddle after the last tick.
type Frame struct {
	Paddles [2]mgl32.Vec4
	Tick    uint64
}

// FrameData is the data of the frame system.
type FrameData struct {
	Cameras    *decs.Storage[Camera]
	Paddles    *decs.Storage[Paddle]
	Transforms *decs.Storage[Transform]
	Clock      *decs.Clock `decs:"res,opt"`
	Frame      *Frame      `decs:"res,mut"`
}

// NewFrameSystem returns the system projecting paddles through the first
// camera. It stands in for rendering and runs on the dispatching goroutine.
func NewFrameSystem() *decs.Data[FrameData] {
	return decs.NewData(func(d *FrameData) error {
		var vp mgl32.Mat4
		found := false
		for _, cam := range d.Cameras.All() {
			vp = cam.ViewProjection()
			found = true
			break
		}
		if !found {
			return nil
		}
		for row := range decs.Join2(d.Paddles, d.Transforms) {
			d.Frame.Paddles[row.A.Side] = vp.Mul4x1(row.B.Translation.Vec4(1))
		}
		if d.Clock != nil {
			d.Frame.Tick = d.Clock.Tick
		}
		return nil
	})
}
