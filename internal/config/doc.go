// Package config defines the format-agnostic build specification model, the
// fixed stage enum, and the Loader interface for reading specifications from
// various file formats.
//
// The `config.Spec` is the single source of truth for the `resolver` and
// `pipeline` packages. Concrete Loader implementations, such as for HCL and
// YAML, are provided in separate packages.
package config
