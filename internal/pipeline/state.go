package pipeline

import "github.com/shran-labs/shran/internal/config"

// State is the per-target position in the pipeline state machine. Initial
// state is Queued; Succeeded and Failed are terminal.
type State string

const (
	Queued      State = "queued"
	Configuring State = "configuring"
	Compiling   State = "compiling"
	Linking     State = "linking"
	Testing     State = "testing"
	Packaging   State = "packaging"
	Deploying   State = "deploying"
	Succeeded   State = "succeeded"
	Failed      State = "failed"
)

// stateFor maps a stage to the state a target occupies while running it.
// The switch is exhaustive over the stage enum so adding a stage without a
// state fails loudly here.
func stateFor(st config.Stage) State {
	switch st {
	case config.StageConfigure:
		return Configuring
	case config.StageCompile:
		return Compiling
	case config.StageLink:
		return Linking
	case config.StageTest:
		return Testing
	case config.StagePackage:
		return Packaging
	case config.StageDeploy:
		return Deploying
	}
	panic("pipeline: no state for stage " + string(st))
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}
