// Package fsutil provides file system utility functions and the application's
// well-known file locations.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const progName = "shran"

// ConfigDir returns the application's XDG config directory, creating it if
// necessary.
func ConfigDir() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, progName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// CacheDir returns the application's XDG cache directory, creating it if
// necessary. Downloaded source archives land here.
func CacheDir() (string, error) {
	dir := filepath.Join(xdg.CacheHome, progName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// TokenFile is the path of the stored GitHub token file.
func TokenFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gh.yaml"), nil
}

// ManifestFile is the path of the fetched-sources manifest.
func ManifestFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manifest.yaml"), nil
}
