package decs

// System is a unit of per-tick logic.
//
// Access is called once when the dispatcher is built and must describe every
// resource Run touches. Run is called once per tick; systems in the same
// stage run concurrently, so Run may only use the resources it declared.
type System interface {
	Access() Access
	Run(w *World) error
}

// Setupper is implemented by systems that prepare resources or register
// event readers before the first tick.
type Setupper interface {
	Setup(w *World) error
}

// Disposer is implemented by systems that release resources when the
// dispatcher is closed.
type Disposer interface {
	Dispose(w *World)
}

// funcSystem adapts a function to System.
type funcSystem struct {
	access Access
	run    func(w *World) error
}

func (f *funcSystem) Access() Access     { return f.access }
func (f *funcSystem) Run(w *World) error { return f.run(w) }

// Func returns a System running fn with the given access descriptor.
func Func(access Access, fn func(w *World) error) System {
	return &funcSystem{access: access, run: fn}
}
