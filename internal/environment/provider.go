// Package environment abstracts where stage commands physically execute.
//
// The Provider interface has two implementations: LocalProvider runs commands
// directly against the host toolchain, ContainerProvider runs them inside a
// managed build container. The stage executor is agnostic to which is active;
// the spec's execution_mode field selects the variant once at pipeline start.
package environment

import (
	"context"
	"io"
)

// Command describes one external process invocation.
type Command struct {
	// Argv is the program and its arguments. Must be non-empty.
	Argv []string

	// Dir is the working directory for the process.
	Dir string

	// Env holds additional environment variables for the process.
	Env map[string]string

	// Stdout and Stderr receive the process output streams. Either may be nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Outcome is the result of a correctly spawned process.
type Outcome struct {
	ExitCode int
}

// Provider executes stage commands in a concrete environment.
//
// A nil error with a non-zero Outcome.ExitCode is a stage failure; a non-nil
// error means the process could not be spawned or supervised at all, which
// the stage executor reports as SpawnFailed.
type Provider interface {
	Execute(ctx context.Context, cmd Command) (Outcome, error)

	// Close releases any resources held for the run, such as the build
	// container. Providers without run-scoped resources return nil.
	Close(ctx context.Context) error
}
