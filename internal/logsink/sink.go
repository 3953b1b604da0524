// Package logsink receives captured stage output keyed by target and stage.
// The engine only ever writes to a sink; it never reads the data back.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink hands out writers for a target's stage output streams and reports the
// reference recorded on the StageResult.
type Sink interface {
	// Writer returns the destination for one output stream ("stdout" or
	// "stderr") of a target+stage pair.
	Writer(target, stage, stream string) (io.WriteCloser, error)

	// Ref returns the captured-output reference for a target+stage pair,
	// suitable for the final report.
	Ref(target, stage string) string
}

// DirSink stores output as append-only files under a root directory, one
// file per target+stage+stream.
type DirSink struct {
	root string
}

// NewDirSink creates the root directory and returns a sink over it.
func NewDirSink(root string) (*DirSink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &DirSink{root: root}, nil
}

// Writer implements Sink.
func (s *DirSink) Writer(target, stage, stream string) (io.WriteCloser, error) {
	dir := filepath.Join(s.root, sanitize(target))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, fmt.Sprintf("%s.%s.log", stage, stream))
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Ref implements Sink.
func (s *DirSink) Ref(target, stage string) string {
	return filepath.Join(s.root, sanitize(target), stage+".*.log")
}

// sanitize keeps target names usable as directory names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
}

// Discard is a Sink that throws all output away. Useful in tests.
type Discard struct{}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Writer implements Sink.
func (Discard) Writer(target, stage, stream string) (io.WriteCloser, error) {
	return nopCloser{io.Discard}, nil
}

// Ref implements Sink.
func (Discard) Ref(target, stage string) string { return "" }
