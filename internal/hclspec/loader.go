// Package hclspec is the HCL implementation of the config.Loader interface.
// It parses a single .hcl build specification into the format-agnostic
// config.Spec and validates it.
package hclspec

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
)

// Loader is the HCL-specific implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL specification loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses, translates and validates the spec file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse spec file %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, classifyDecodeDiags(diags)
	}

	if len(root.Builds) == 0 {
		return nil, &config.Error{Kind: config.MissingField, Field: "build"}
	}
	if len(root.Builds) > 1 {
		return nil, &config.Error{Kind: config.InvalidValue, Field: "build", Detail: "a spec file holds exactly one build block"}
	}

	spec, err := translate(root.Builds[0])
	if err != nil {
		return nil, err
	}
	if err := config.Validate(spec); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "target", spec.Target, "libraries", len(spec.Libraries))
	return spec, nil
}

// evalContext exposes the process environment to spec expressions, so a spec
// can say e.g. `source_ref = env.BITCOIN_REF`.
func evalContext() *hcl.EvalContext {
	envVals := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envVals[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVals),
		},
	}
}

// translate converts the HCL-specific schema into the agnostic model.
func translate(b *buildBlock) (*config.Spec, error) {
	spec := &config.Spec{
		Target:           b.Target,
		SourceRef:        b.SourceRef,
		ExecutionMode:    config.Mode(b.ExecutionMode),
		Stages:           make(map[config.Stage]*config.StagePolicy),
		AllowTestFailure: true,
	}
	if b.Image != nil {
		spec.Image = *b.Image
	}
	if b.WorkDir != nil {
		spec.WorkDir = *b.WorkDir
	}
	if b.AllowTestFailure != nil {
		spec.AllowTestFailure = *b.AllowTestFailure
	}

	for _, lb := range b.Libraries {
		lib := &config.Library{Name: lb.Name, Source: lb.Source}
		if lb.Version != nil {
			lib.Version = *lb.Version
		}
		lib.Requires = lb.Requires
		spec.Libraries = append(spec.Libraries, lib)
	}

	for _, sb := range b.Stages {
		name := config.Stage(sb.Name)
		if _, dup := spec.Stages[name]; dup {
			return nil, &config.Error{Kind: config.InvalidValue, Field: "stage", Detail: fmt.Sprintf("stage %q declared twice", sb.Name)}
		}
		policy := &config.StagePolicy{Enabled: true}
		if sb.Enabled != nil {
			policy.Enabled = *sb.Enabled
		}
		if sb.TimeoutSeconds != nil {
			if *sb.TimeoutSeconds < 0 {
				return nil, &config.Error{Kind: config.InvalidValue, Field: "timeout_seconds", Detail: "must not be negative"}
			}
			policy.Timeout = time.Duration(*sb.TimeoutSeconds) * time.Second
		}
		if sb.Command != nil {
			argv, err := config.ParseCommand(*sb.Command)
			if err != nil {
				return nil, &config.Error{Kind: config.InvalidValue, Field: "command", Detail: err.Error()}
			}
			policy.Command = argv
		}
		spec.Stages[name] = policy
	}

	return spec, nil
}

// classifyDecodeDiags turns gohcl's "Unsupported argument/block" diagnostics
// into the unknown-key config error, so both loaders reject unknown keys
// with the same category.
func classifyDecodeDiags(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if strings.HasPrefix(d.Summary, "Unsupported") {
			return config.UnknownKeyError(d.Detail)
		}
		if strings.Contains(d.Summary, "Missing required argument") {
			return &config.Error{Kind: config.MissingField, Field: d.Detail}
		}
	}
	return fmt.Errorf("failed to decode spec: %w", diags)
}
