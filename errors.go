package decs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrStaleEntity           = errors.New("decs: stale entity")
	ErrUnregisteredComponent = errors.New("decs: unregistered component")
	ErrSchedulingConflict    = errors.New("decs: scheduling conflict")
	ErrSystemFailure         = errors.New("decs: system failure")

	// ErrReaderAfterStart is returned when a reader is registered on a
	// channel whose world already started ticking.
	ErrReaderAfterStart = errors.New("decs: reader registered after first dispatch")

	// ErrNotSetUp is returned by Dispatch before Setup completed.
	ErrNotSetUp = errors.New("decs: dispatcher not set up")

	// ErrDispatchInProgress is returned when Dispatch is re-entered.
	ErrDispatchInProgress = errors.New("decs: dispatch already in progress")

	// ErrClosed is returned by a dispatcher after Close.
	ErrClosed = errors.New("decs: dispatcher closed")
)

// StaleEntityError reports an operation on a destroyed or recycled entity.
// Callers usually treat it as "component absent".
type StaleEntityError struct {
	Entity Entity
}

func (e *StaleEntityError) Error() string {
	return fmt.Sprintf("decs: stale entity %s", e.Entity)
}

func (e *StaleEntityError) Is(target error) bool {
	return target == ErrStaleEntity
}

// UnregisteredComponentError reports access to a resource that was never
// added to the World. It is raised by Dispatcher.Setup.
type UnregisteredComponentError struct {
	Type   reflect.Type
	Kind   Kind
	System string
}

func (e *UnregisteredComponentError) Error() string {
	if e.System == "" {
		return fmt.Sprintf("decs: %s %v is not registered", e.Kind, e.Type)
	}
	return fmt.Sprintf("decs: system %q accesses unregistered %s %v", e.System, e.Kind, e.Type)
}

func (e *UnregisteredComponentError) Is(target error) bool {
	return target == ErrUnregisteredComponent
}

// SchedulingConflictError reports a dispatcher that cannot be built.
type SchedulingConflictError struct {
	Reason  string
	Systems []string
}

func (e *SchedulingConflictError) Error() string {
	if len(e.Systems) == 0 {
		return "decs: cannot schedule: " + e.Reason
	}
	return fmt.Sprintf("decs: cannot schedule: %s [%s]", e.Reason, strings.Join(e.Systems, ", "))
}

func (e *SchedulingConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// SystemFailure reports a system that returned an error or panicked during
// a tick.
type SystemFailure struct {
	System string
	Stage  int
	Tick   uint64

	// Err is the returned error, nil if the system panicked.
	Err error

	// Panic and Stack are set when the system panicked.
	Panic any
	Stack []byte
}

func (e *SystemFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decs: system %q failed in stage %d (tick %d): %v", e.System, e.Stage, e.Tick, e.Err)
	}
	return fmt.Sprintf("decs: system %q panicked in stage %d (tick %d): %v", e.System, e.Stage, e.Tick, e.Panic)
}

func (e *SystemFailure) Unwrap() error {
	return e.Err
}

func (e *SystemFailure) Is(target error) bool {
	return target == ErrSystemFailure
}
