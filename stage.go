package decs

import "strings"

// Stage is a batch of systems proven not to conflict. Stages run strictly in
// order; the systems of one stage run concurrently.
type Stage struct {
	index   int
	systems []*systemEntry
}

// Index returns the stage's position in the plan.
func (s *Stage) Index() int {
	return s.index
}

// Names returns the names of the stage's systems in registration order.
func (s *Stage) Names() []string {
	names := make([]string, len(s.systems))
	for i, e := range s.systems {
		names[i] = e.name
	}
	return names
}

// Len returns the number of systems in the stage.
func (s *Stage) Len() int {
	return len(s.systems)
}

// String returns the string representation of the stage.
func (s *Stage) String() string {
	return "[" + strings.Join(s.Names(), " ") + "]"
}

// systemEntry is a registered system with its scheduling metadata.
type systemEntry struct {
	name   string
	system System
	access Access

	// deps are explicit must-run-after names
	deps []string

	// barrier is the number of barriers registered before this system
	barrier int

	// index is the registration order
	index int

	// local systems run on the dispatching goroutine after all stages
	local bool
}
