package config

import "time"

// Mode selects where stage commands physically execute. It is fixed for the
// duration of a run.
type Mode string

const (
	ModeLocal     Mode = "local"
	ModeContainer Mode = "container"
)

// Spec is the unified, format-agnostic representation of a single build
// request. Loaders produce it; Validate checks its invariants before the
// resolver or pipeline ever see it.
type Spec struct {
	// Target is the identifier of the node binary being built, e.g. "bitcoind".
	Target string

	// SourceRef is the pinned tag or commit of the node's source tree.
	SourceRef string

	// ExecutionMode is either ModeLocal or ModeContainer.
	ExecutionMode Mode

	// Image is the container image used when ExecutionMode is ModeContainer.
	Image string

	// WorkDir is the workspace the stage commands run in. Defaults to the
	// current directory.
	WorkDir string

	// Libraries are the declared library overrides, in declaration order.
	// Declaration order is the tie-break for the resolved build order.
	Libraries []*Library

	// Stages holds per-stage overrides. Stages absent from the map run with
	// defaults: enabled, no timeout, default command.
	Stages map[Stage]*StagePolicy

	// AllowTestFailure keeps the pipeline moving past a failed test stage.
	AllowTestFailure bool
}

// Library is a request to substitute a named shared library with a
// caller-supplied artifact.
type Library struct {
	// Name must be unique within a spec.
	Name string

	// Source is the replacement artifact path or URL. It must be resolvable
	// before the compile stage begins.
	Source string

	// Version is an optional semver constraint on the replacement artifact.
	Version string

	// Requires names other libraries (overrides or default libraries) that
	// must finish their own pipelines before this one begins.
	Requires []string
}

// StagePolicy overrides the behavior of a single stage.
type StagePolicy struct {
	Enabled bool

	// Timeout bounds the stage's external process. Zero means no timeout.
	Timeout time.Duration

	// Command is the argv to run instead of the stage default. Empty means
	// use DefaultCommand.
	Command []string
}

// Policy returns the effective policy for a stage, falling back to the
// enabled/no-timeout default when the spec has no override.
func (s *Spec) Policy(st Stage) StagePolicy {
	if p, ok := s.Stages[st]; ok && p != nil {
		return *p
	}
	return StagePolicy{Enabled: true}
}

// Command returns the effective argv for a stage.
func (s *Spec) Command(st Stage) []string {
	if p, ok := s.Stages[st]; ok && p != nil && len(p.Command) > 0 {
		return p.Command
	}
	argv, err := ParseCommand(DefaultCommand(st))
	if err != nil {
		// Default commands are compile-time constants; a parse failure here
		// is a programmer error.
		panic(err)
	}
	return argv
}
