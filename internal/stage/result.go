// Package stage runs a single pipeline stage as a supervised external
// process and classifies its outcome. Retry and halt policy live in the
// pipeline controller, not here.
package stage

import (
	"time"

	"github.com/shran-labs/shran/internal/config"
)

// Status is the lifecycle state of a stage run.
type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Skipped   Status = "skipped"
)

// Terminal reports whether the status is final. Terminal results are
// immutable.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed || s == Skipped
}

// Reason refines a Failed status.
type Reason string

const (
	// NonZeroExit is a correctly spawned process that exited non-zero.
	NonZeroExit Reason = "non_zero_exit"
	// SpawnFailed means the process could not be started at all, e.g. a
	// missing toolchain binary.
	SpawnFailed Reason = "spawn_failed"
	// Cancelled means the run-wide cancellation signal terminated the stage.
	Cancelled Reason = "cancelled"
	// TimedOut means the stage exceeded its configured timeout.
	TimedOut Reason = "timed_out"
	// DependencyFailed means the stage never ran because a target this
	// target depends on did not finish its own pipeline.
	DependencyFailed Reason = "dependency_failed"
	// SourceUnresolvable means a library override's source artifact could
	// not be found when the compile stage was about to begin.
	SourceUnresolvable Reason = "source_unresolvable"
)

// Result records the terminal outcome of one stage for one target.
type Result struct {
	Target   string
	Stage    config.Stage
	Status   Status
	Reason   Reason
	ExitCode int
	Duration time.Duration

	// LogRef points at the captured output in the log sink.
	LogRef string

	// Err carries the spawn or supervision error when Reason is SpawnFailed.
	Err error
}
