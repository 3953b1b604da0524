// Package manifest records which source trees have been fetched, so repeat
// runs against the same ref reuse the unpacked tree instead of downloading it
// again.
package manifest

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/shran-labs/shran/internal/fsutil"
)

// Entry describes one fetched source tree.
type Entry struct {
	Version              string    `yaml:"version"`
	Commit               string    `yaml:"commit"`
	PublishedDate        time.Time `yaml:"published_date"`
	InstallationLocation string    `yaml:"installation_location"`
}

type fileRoot struct {
	Entries []*Entry `yaml:"entries"`
}

// Store is the on-disk manifest. Safe for concurrent use within a process;
// concurrent processes are out of scope.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []*Entry
}

// Open loads the manifest from its well-known location, creating an empty
// one on first use.
func Open() (*Store, error) {
	path, err := fsutil.ManifestFile()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt loads the manifest at an explicit path. Tests use this.
func OpenAt(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var root fileRoot
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	s.entries = root.Entries
	return s, nil
}

// Lookup returns the entry for version, or nil when the version was never
// fetched.
func (s *Store) Lookup(version string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Version == version {
			return e
		}
	}
	return nil
}

// Record inserts or replaces the entry for e.Version and persists the
// manifest.
func (s *Store) Record(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, existing := range s.entries {
		if existing.Version == e.Version {
			s.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		s.entries = append(s.entries, e)
	}
	return s.save()
}

// Remove drops the entry for version, if present, and persists the manifest.
func (s *Store) Remove(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.Version == version {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.save()
		}
	}
	return nil
}

// Versions lists all recorded versions in insertion order.
func (s *Store) Versions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Version
	}
	return out
}

func (s *Store) save() error {
	data, err := yaml.Marshal(&fileRoot{Entries: s.entries})
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", s.path, err)
	}
	return nil
}
