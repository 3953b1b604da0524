// Package yamlspec is the YAML implementation of the config.Loader interface.
// It decodes a single .yaml build specification into the format-agnostic
// config.Spec and validates it. Decoding is strict: unknown keys are
// rejected, same as the HCL loader.
package yamlspec

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
)

// fileRoot is the YAML shape of a spec file.
type fileRoot struct {
	Target           string                `yaml:"target"`
	SourceRef        string                `yaml:"source_ref"`
	ExecutionMode    string                `yaml:"execution_mode"`
	Image            string                `yaml:"image"`
	WorkDir          string                `yaml:"work_dir"`
	AllowTestFailure *bool                 `yaml:"allow_test_failure"`
	Libraries        []libraryEntry        `yaml:"libraries"`
	Stages           map[string]stageEntry `yaml:"stages"`
}

type libraryEntry struct {
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source"`
	Version  string   `yaml:"version"`
	Requires []string `yaml:"requires"`
}

type stageEntry struct {
	Enabled        *bool  `yaml:"enabled"`
	TimeoutSeconds *int   `yaml:"timeout_seconds"`
	Command        string `yaml:"command"`
}

// Loader is the YAML-specific implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML specification loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses, translates and validates the spec file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}

	var root fileRoot
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.Strict()); err != nil {
		return nil, classifyDecodeError(err)
	}

	spec, err := translate(&root)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(spec); err != nil {
		return nil, err
	}

	logger.Debug("YAML loading complete.", "target", spec.Target, "libraries", len(spec.Libraries))
	return spec, nil
}

// translate converts the YAML-specific schema into the agnostic model.
func translate(root *fileRoot) (*config.Spec, error) {
	spec := &config.Spec{
		Target:           root.Target,
		SourceRef:        root.SourceRef,
		ExecutionMode:    config.Mode(root.ExecutionMode),
		Image:            root.Image,
		WorkDir:          root.WorkDir,
		Stages:           make(map[config.Stage]*config.StagePolicy),
		AllowTestFailure: true,
	}
	if root.AllowTestFailure != nil {
		spec.AllowTestFailure = *root.AllowTestFailure
	}

	for _, le := range root.Libraries {
		spec.Libraries = append(spec.Libraries, &config.Library{
			Name:     le.Name,
			Source:   le.Source,
			Version:  le.Version,
			Requires: le.Requires,
		})
	}

	for name, se := range root.Stages {
		policy := &config.StagePolicy{Enabled: true}
		if se.Enabled != nil {
			policy.Enabled = *se.Enabled
		}
		if se.TimeoutSeconds != nil {
			if *se.TimeoutSeconds < 0 {
				return nil, &config.Error{Kind: config.InvalidValue, Field: "timeout_seconds", Detail: "must not be negative"}
			}
			policy.Timeout = time.Duration(*se.TimeoutSeconds) * time.Second
		}
		if se.Command != "" {
			argv, err := config.ParseCommand(se.Command)
			if err != nil {
				return nil, &config.Error{Kind: config.InvalidValue, Field: "command", Detail: err.Error()}
			}
			policy.Command = argv
		}
		spec.Stages[config.Stage(name)] = policy
	}

	return spec, nil
}

// classifyDecodeError maps goccy's strict-mode "unknown field" errors to the
// unknown-key config error, so both loaders reject unknown keys with the same
// category.
func classifyDecodeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unknown field") {
		return config.UnknownKeyError(msg)
	}
	return fmt.Errorf("failed to decode spec: %w", err)
}
