package config

import "context"

// Loader is the interface for a format-specific specification loader.
type Loader interface {
	// Load reads a build specification from the given path and translates it
	// into the format-agnostic Spec. Implementations validate the result with
	// Validate before returning it.
	Load(ctx context.Context, path string) (*Spec, error)
}
