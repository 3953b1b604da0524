package app

import (
	"path/filepath"
	"strings"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/hclspec"
	"github.com/shran-labs/shran/internal/yamlspec"
)

// loaderFor picks the spec loader by file extension. HCL is the native
// format; YAML is the interchange format.
func loaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hclspec.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlspec.NewLoader(), nil
	default:
		return nil, &config.Error{
			Kind:   config.InvalidValue,
			Field:  "spec_path",
			Detail: "spec file must end in .hcl, .yaml or .yml",
		}
	}
}
