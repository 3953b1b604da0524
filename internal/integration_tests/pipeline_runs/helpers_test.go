package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"

	"github.com/shran-labs/shran/internal/app"
	"github.com/shran-labs/shran/internal/testutil"
)

// harnessResult holds the outcomes of an end-to-end run.
type harnessResult struct {
	LogOutput string
	Err       error
	CacheDir  string
}

// runBuild writes the given spec into a temp dir and drives the full
// application lifecycle against it, offline, with XDG dirs redirected into
// the temp dir. The literal "@WORKDIR@" in the spec content is replaced with
// a fresh workspace directory.
func runBuild(t *testing.T, filename, content string) *harnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	t.Setenv("XDG_CACHE_HOME", cacheDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	xdg.Reload()

	workDir := filepath.Join(tmpDir, "work")
	require.NoError(t, os.Mkdir(workDir, 0o755))
	content = strings.ReplaceAll(content, "@WORKDIR@", workDir)

	specPath := filepath.Join(tmpDir, filename)
	require.NoError(t, os.WriteFile(specPath, []byte(content), 0o644))

	cfg, err := app.NewConfig(app.Config{
		SpecPath:    specPath,
		LogFormat:   "text",
		LogLevel:    "debug",
		WorkerCount: 4,
		Offline:     true,
	})
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	runErr := app.NewApp(logBuffer, cfg).Run(context.Background())

	if os.Getenv("SHRAN_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &harnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		CacheDir:  cacheDir,
	}
}
