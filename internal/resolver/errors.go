package resolver

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a resolution error.
type ErrorKind string

const (
	// CycleDetected means the declared requires relationships form a cycle.
	CycleDetected ErrorKind = "cycle_detected"
	// UnknownDependency means a library override requires a name that is
	// neither a declared override nor a default library.
	UnknownDependency ErrorKind = "unknown_dependency"
)

// Error is a graph-level problem with the build spec. It is fatal before any
// external process is spawned.
type Error struct {
	Kind ErrorKind

	// Participants lists the node names of the detected cycle, in cycle
	// order starting from the first-declared participant.
	Participants []string

	// Name is the unresolvable dependency name.
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case CycleDetected:
		return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Participants, " -> "))
	case UnknownDependency:
		return fmt.Sprintf("unknown dependency %q: not a declared override or default library", e.Name)
	}
	return string(e.Kind)
}
