package config

// Stage is one discrete phase of the native build pipeline.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageCompile   Stage = "compile"
	StageLink      Stage = "link"
	StageTest      Stage = "test"
	StagePackage   Stage = "package"
	StageDeploy    Stage = "deploy"
)

// StageOrder is the fixed execution order of the pipeline. Adding a stage
// here requires a matching state in the pipeline state machine.
var StageOrder = []Stage{
	StageConfigure,
	StageCompile,
	StageLink,
	StageTest,
	StagePackage,
	StageDeploy,
}

// KnownStage reports whether s is a member of the fixed stage enum.
func KnownStage(s Stage) bool {
	for _, known := range StageOrder {
		if s == known {
			return true
		}
	}
	return false
}

// defaultCommands maps each stage to the autotools command it runs when the
// spec does not override it.
var defaultCommands = map[Stage]string{
	StageConfigure: "./configure",
	StageCompile:   "make",
	StageLink:      "make all",
	StageTest:      "make check",
	StagePackage:   "make dist",
	StageDeploy:    "make install",
}

// DefaultCommand returns the default command line for a stage.
func DefaultCommand(s Stage) string {
	return defaultCommands[s]
}
