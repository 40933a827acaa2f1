package pong

// InputHandler reports the current value of named input axes in [-1, 1].
type InputHandler interface {
	AxisValue(name string) (float32, bool)
}

// Input is the world resource holding the active input handler.
type Input struct {
	Handler InputHandler
}

// AxisValue returns the handler's axis value, or false without a handler.
func (in *Input) AxisValue(name string) (float32, bool) {
	if in.Handler == nil {
		return 0, false
	}
	return in.Handler.AxisValue(name)
}

// ScriptedInput replays a fixed list of frames, one per tick. Past the last
// frame every axis is unset.
type ScriptedInput struct {
	frames []map[string]float32
	frame  int
}

// NewScriptedInput returns an input replaying frames.
func NewScriptedInput(frames ...map[string]float32) *ScriptedInput {
	return &ScriptedInput{frames: frames}
}

// AxisValue implements InputHandler.
func (s *ScriptedInput) AxisValue(name string) (float32, bool) {
	if s.frame >= len(s.frames) {
		return 0, false
	}
	v, ok := s.frames[s.frame][name]
	if !ok {
		return 0, false
	}
	return max(-1, min(1, v)), true
}

// Advance moves to the next frame.
func (s *ScriptedInput) Advance() {
	if s.frame < len(s.frames) {
		s.frame++
	}
}

// Done reports whether every frame was replayed.
func (s *ScriptedInput) Done() bool {
	return s.frame >= len(s.frames)
}
