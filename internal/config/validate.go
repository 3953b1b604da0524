package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/shlex"
)

// DefaultLibraries is the fixed set of substitutable shared libraries a node
// build links against. A library override's `requires` must name a member of
// this set or another declared override.
var DefaultLibraries = []string{
	"libssl",
	"libevent",
	"libboost",
	"libsqlite3",
	"libdb",
	"libzmq",
	"libminiupnpc",
	"libnatpmp",
}

// IsDefaultLibrary reports whether name is in the fixed default library set.
func IsDefaultLibrary(name string) bool {
	for _, l := range DefaultLibraries {
		if name == l {
			return true
		}
	}
	return false
}

// ParseCommand splits a stage command string into an argv using shell-style
// word splitting. It performs no variable expansion.
func ParseCommand(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}
	return argv, nil
}

// Validate checks the spec's invariants. It returns a *Error naming the
// offending field, and has no side effects.
func Validate(spec *Spec) error {
	if spec.Target == "" {
		return missingField("target")
	}
	if spec.SourceRef == "" {
		return missingField("source_ref")
	}

	switch spec.ExecutionMode {
	case ModeLocal, ModeContainer:
	case "":
		return missingField("execution_mode")
	default:
		return invalidValue("execution_mode", fmt.Sprintf("%q is not one of local, container", spec.ExecutionMode))
	}
	if spec.ExecutionMode == ModeContainer && spec.Image == "" {
		return missingField("image")
	}

	seen := make(map[string]struct{}, len(spec.Libraries))
	for _, lib := range spec.Libraries {
		if lib.Name == "" {
			return missingField("libraries.name")
		}
		if lib.Source == "" {
			return missingField(fmt.Sprintf("libraries[%s].source", lib.Name))
		}
		if _, dup := seen[lib.Name]; dup {
			return duplicateOverride(lib.Name)
		}
		seen[lib.Name] = struct{}{}

		if lib.Version != "" {
			if _, err := semver.NewConstraint(lib.Version); err != nil {
				return invalidValue(fmt.Sprintf("libraries[%s].version", lib.Name), err.Error())
			}
		}
	}

	for st := range spec.Stages {
		if !KnownStage(st) {
			return invalidValue("stages", fmt.Sprintf("%q is not a pipeline stage", st))
		}
	}

	return nil
}
