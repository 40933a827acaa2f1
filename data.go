package decs

import (
	"fmt"
	"reflect"
	"unsafe"
)

// fieldMeta holds metadata about a single injectable field.
type fieldMeta struct {
	// offset is the field offset in the struct for unsafe injection
	offset uintptr

	// name is the field name for debugging
	name string

	kind FieldKind

	// id and typ identify the resource; for reader fields, the channel
	id  ResourceID
	typ reflect.Type

	optional bool
	mutable  bool
}

// Data is a System whose access descriptor is derived from the fields of
// the struct D, which is filled with the fetched resources before every run.
//
//	type moveData struct {
//	    Positions  *decs.Storage[Position] `decs:"mut"`
//	    Velocities *decs.Storage[Velocity]
//	    Gravity    *Gravity                `decs:"res"`
//	    Hits       *decs.ReaderID[Hit]     `decs:"reader"`
//	    frames     int
//	}
//
// Tag reference:
//
//	(none)        read access (storages, channels, *Entities)
//	decs:"mut"    write access
//	decs:"opt"    optional, nil if missing from the world
//	decs:"res"    plain resource pointer
//	decs:"reader" event cursor registered at setup
//	decs:"-"      never injected
//
// Any other field is system state and keeps its value across ticks.
// Declared event channels missing from the world are added at setup.
type Data[D any] struct {
	data   D
	fields []fieldMeta
	access Access
	run    func(d *D) error
	setup  func(d *D, w *World) error
}

// NewData analyzes D and returns a system running fn each tick.
// It panics if D is not a struct.
func NewData[D any](fn func(d *D) error) *Data[D] {
	fields, access, err := analyzeData(reflect.TypeFor[D]())
	if err != nil {
		panic("decs: " + err.Error())
	}
	return &Data[D]{fields: fields, access: access, run: fn}
}

// OnSetup registers a hook called once at setup, after readers are
// registered.
func (d *Data[D]) OnSetup(fn func(d *D, w *World) error) *Data[D] {
	d.setup = fn
	return d
}

// State returns the system's data struct.
func (d *Data[D]) State() *D {
	return &d.data
}

// Access implements System.
func (d *Data[D]) Access() Access {
	return d.access
}

// Setup implements Setupper.
func (d *Data[D]) Setup(w *World) error {
	for i := range d.fields {
		f := &d.fields[i]
		if f.kind != KindChannelField && f.kind != KindReaderField {
			continue
		}
		if !w.has(f.id) && !f.optional {
			w.insert(f.id, reflect.New(f.typ).Interface())
		}
	}

	for i := range d.fields {
		f := &d.fields[i]
		// Already registered by an earlier, failed setup.
		if f.kind != KindReaderField || d.getField(f) != nil {
			continue
		}
		res, ok := w.lookup(f.id)
		if !ok {
			continue
		}
		ptr, err := res.(readerRegistrar).registerReaderPtr()
		if err != nil {
			return fmt.Errorf("register reader %s: %w", f.name, err)
		}
		d.setField(f, ptr)
	}

	if d.setup != nil {
		return d.setup(&d.data, w)
	}
	return nil
}

// Dispose implements Disposer by dropping the registered readers.
func (d *Data[D]) Dispose(w *World) {
	for i := range d.fields {
		f := &d.fields[i]
		if f.kind != KindReaderField {
			continue
		}
		ptr := d.getField(f)
		if ptr == nil {
			continue
		}
		if res, ok := w.lookup(f.id); ok {
			res.(readerRegistrar).removeReaderPtr(ptr)
		}
		d.setField(f, nil)
	}
}

// Run implements System.
func (d *Data[D]) Run(w *World) error {
	if err := d.inject(w); err != nil {
		return err
	}
	return d.run(&d.data)
}

func (d *Data[D]) inject(w *World) error {
	for i := range d.fields {
		f := &d.fields[i]
		switch f.kind {
		case KindStorageField, KindChannelField, KindEntitiesField, KindResourceField:
			res, ok := w.lookup(f.id)
			if !ok {
				if !f.optional {
					return &UnregisteredComponentError{Type: f.typ, Kind: ResourceKind(f.id)}
				}
				d.setField(f, nil)
				continue
			}
			d.setField(f, reflect.ValueOf(res).UnsafePointer())
		}
	}
	return nil
}

func (d *Data[D]) setField(f *fieldMeta, ptr unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(unsafe.Pointer(&d.data), f.offset)) = ptr
}

func (d *Data[D]) getField(f *fieldMeta) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(unsafe.Pointer(&d.data), f.offset))
}

// analyzeData computes the injection metadata and access descriptor of a
// data struct type.
func analyzeData(t reflect.Type) ([]fieldMeta, Access, error) {
	var access Access
	if t.Kind() != reflect.Struct {
		return nil, access, fmt.Errorf("system data must be a struct, got %v", t.Kind())
	}

	var fields []fieldMeta
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := parseTag(field.Tag.Get(tagName))
		if tag.Skip || field.Type.Kind() != reflect.Ptr {
			continue
		}
		elem := field.Type.Elem()

		meta := fieldMeta{
			offset:   field.Offset,
			name:     field.Name,
			optional: tag.Optional,
			mutable:  tag.Mutable,
		}
		mode := ModeRead
		if tag.Mutable {
			mode = ModeWrite
		}

		switch {
		case field.Type.Implements(channelReaderType):
			chanType := reflect.New(elem).Interface().(channelReader).readerChannel()
			meta.kind = KindReaderField
			meta.typ = chanType
			meta.id = registry.register(chanType)
			// A reader only needs shared access; writing is declared on the
			// channel field itself.
			mode = ModeRead

		case field.Type.Implements(kindedType):
			meta.typ = elem
			meta.id = registry.register(elem)
			switch reflect.New(elem).Interface().(kinded).resourceKind() {
			case KindComponent:
				meta.kind = KindStorageField
			case KindChannel:
				meta.kind = KindChannelField
			case KindEntities:
				meta.kind = KindEntitiesField
			default:
				meta.kind = KindResourceField
			}

		case tag.Resource:
			meta.kind = KindResourceField
			meta.typ = elem
			meta.id = registry.register(elem)

		default:
			continue
		}

		access.add(Requirement{
			ID:       meta.id,
			Type:     meta.typ,
			Kind:     ResourceKind(meta.id),
			Mode:     mode,
			Optional: tag.Optional,
		})
		fields = append(fields, meta)
	}

	return fields, access, nil
}
