package decs

// Bundle groups related resources and systems together.
//
// Build registers the bundle's resources into w and its systems into b.
// Bundles are applied with DispatcherBuilder.Bundle before Build, so a
// bundle may name systems of earlier bundles as dependencies.
type Bundle interface {
	Build(w *World, b *DispatcherBuilder) error
}

// BundleFunc adapts a function to Bundle.
//
//	physics := decs.BundleFunc(func(w *decs.World, b *decs.DispatcherBuilder) error {
//	    decs.RegisterComponent[Velocity](w)
//	    b.With(moveSystem, "move")
//	    return nil
//	})
type BundleFunc func(w *World, b *DispatcherBuilder) error

// Build implements Bundle.
func (f BundleFunc) Build(w *World, b *DispatcherBuilder) error {
	return f(w, b)
}
