package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shran-labs/shran/internal/cli"
)

func TestRun_MalformedSpec(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL file with a syntax error that is guaranteed to fail parsing.
	invalidHCL := `
		build "bitcoind" {
			source_ref =
	// Missing value and closing brace
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "build.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should return an error for an unparsable spec")
	require.Contains(t, runErr.Error(), "failed to parse", "The error message should name the parse failure.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	require.Equal(t, 2, cli.CodeForError(err))
}
