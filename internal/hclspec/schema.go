package hclspec

// fileRoot decodes the top level of a spec file. Anything outside these
// blocks is an unknown key and rejected.
type fileRoot struct {
	Builds []*buildBlock `hcl:"build,block"`
}

// buildBlock is the HCL shape of a single build request.
type buildBlock struct {
	Target           string          `hcl:"target,label"`
	SourceRef        string          `hcl:"source_ref"`
	ExecutionMode    string          `hcl:"execution_mode"`
	Image            *string         `hcl:"image,optional"`
	WorkDir          *string         `hcl:"work_dir,optional"`
	AllowTestFailure *bool           `hcl:"allow_test_failure,optional"`
	Libraries        []*libraryBlock `hcl:"library,block"`
	Stages           []*stageBlock   `hcl:"stage,block"`
}

// libraryBlock is the HCL shape of one library override.
type libraryBlock struct {
	Name     string   `hcl:"name,label"`
	Source   string   `hcl:"source"`
	Version  *string  `hcl:"version,optional"`
	Requires []string `hcl:"requires,optional"`
}

// stageBlock is the HCL shape of one stage override.
type stageBlock struct {
	Name           string  `hcl:"name,label"`
	Enabled        *bool   `hcl:"enabled,optional"`
	TimeoutSeconds *int    `hcl:"timeout_seconds,optional"`
	Command        *string `hcl:"command,optional"`
}
