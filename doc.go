// Package decs provides an entity-component-system runtime with a parallel
// system dispatcher.
//
// decs is built around a World that owns:
//   - Entities: generational ids, recycled without ever aliasing
//   - Storages: one sparse-set Storage per component type
//   - Resources: any other shared value, including event channels
//
// Systems declare which resources they read and write. A DispatcherBuilder
// turns these declarations into stages: systems in one stage never conflict
// and run in parallel, stages run one after another.
//
// # Quick Start
//
//	w := decs.NewWorld()
//	decs.RegisterComponent[Position](w)
//	decs.RegisterComponent[Velocity](w)
//
//	move := decs.NewData(func(d *moveData) error {
//	    for row := range decs.Join2(d.Positions, d.Velocities) {
//	        row.A.X += row.B.X
//	        row.A.Y += row.B.Y
//	    }
//	    return nil
//	})
//
//	d, err := decs.NewDispatcherBuilder().
//	    With(move, "move").
//	    With(render, "render", "move").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	if err := d.Setup(w); err != nil {
//	    return err
//	}
//	for range 3 {
//	    if err := d.Dispatch(w); err != nil {
//	        return err
//	    }
//	}
//
// # Systems
//
// A System returns its Access and runs once per tick. Most systems are
// written as a tagged data struct wrapped by NewData:
//
//	type moveData struct {
//	    Positions  *decs.Storage[Position] `decs:"mut"`
//	    Velocities *decs.Storage[Velocity]
//	}
//
// Func adapts a plain function with an explicit descriptor:
//
//	decs.Func(decs.AccessOf(decs.WriteStorage[Position]()), func(w *decs.World) error {
//	    positions := decs.Components[Position](w)
//	    ...
//	})
//
// # Events
//
// EventChannel is a broadcast log. Every reader registered at setup sees
// every event written after its registration exactly once:
//
//	type logData struct {
//	    Hits   *decs.EventChannel[Hit]
//	    Cursor *decs.ReaderID[Hit] `decs:"reader"`
//	}
//
// # Tag Reference
//
//	(none)        read access
//	decs:"mut"    write access
//	decs:"opt"    optional (nil if missing)
//	decs:"res"    plain resource
//	decs:"reader" event cursor
//	decs:"-"      ignored
package decs

// Version is the decs version.
const Version = "0.1.0"
