package yamlspec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shran-labs/shran/internal/config"
)

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullSpec(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: container
image: debian:bookworm
work_dir: ./src/bitcoin
allow_test_failure: false
libraries:
  - name: libssl-custom
    source: ./libs/ssl.so
    version: ">= 3.0"
    requires: [libevent]
  - name: libzmq-fast
    source: ./libs/zmq.so
stages:
  test:
    enabled: false
    timeout_seconds: 300
  compile:
    command: make -j8
`)

	spec, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "bitcoind", spec.Target)
	assert.Equal(t, "v25.1", spec.SourceRef)
	assert.Equal(t, config.ModeContainer, spec.ExecutionMode)
	assert.Equal(t, "debian:bookworm", spec.Image)
	assert.Equal(t, "./src/bitcoin", spec.WorkDir)
	assert.False(t, spec.AllowTestFailure)

	require.Len(t, spec.Libraries, 2)
	assert.Equal(t, "libssl-custom", spec.Libraries[0].Name)
	assert.Equal(t, ">= 3.0", spec.Libraries[0].Version)
	assert.Equal(t, []string{"libevent"}, spec.Libraries[0].Requires)
	assert.Equal(t, "libzmq-fast", spec.Libraries[1].Name)

	testPolicy := spec.Policy(config.StageTest)
	assert.False(t, testPolicy.Enabled)
	assert.Equal(t, 300*time.Second, testPolicy.Timeout)
	assert.Equal(t, []string{"make", "-j8"}, spec.Command(config.StageCompile))
}

func TestLoadDefaultsAllowTestFailure(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: local
`)

	spec, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, spec.AllowTestFailure)
	assert.Empty(t, spec.Libraries)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: local
flavor: spicy
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	cfgErr, ok := err.(*config.Error)
	require.True(t, ok)
	assert.Equal(t, config.UnknownKey, cfgErr.Kind)
}

func TestLoadRejectsMissingTarget(t *testing.T) {
	path := writeSpec(t, `
source_ref: v25.1
execution_mode: local
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	cfgErr := err.(*config.Error)
	assert.Equal(t, config.MissingField, cfgErr.Kind)
	assert.Equal(t, "target", cfgErr.Field)
}

func TestLoadRejectsUnknownStage(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: local
stages:
  lint:
    enabled: true
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, config.InvalidValue, err.(*config.Error).Kind)
}

func TestLoadRejectsBadSemverConstraint(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: local
libraries:
  - name: libssl-custom
    source: ./libs/ssl.so
    version: "not-a-constraint ~~"
`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, config.InvalidValue, err.(*config.Error).Kind)
}

func TestLoadPreservesLibraryOrder(t *testing.T) {
	path := writeSpec(t, `
target: bitcoind
source_ref: v25.1
execution_mode: local
libraries:
  - {name: libz, source: ./z.so}
  - {name: liba, source: ./a.so}
  - {name: libm, source: ./m.so}
`)

	spec, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	names := make([]string, len(spec.Libraries))
	for i, lib := range spec.Libraries {
		names[i] = lib.Name
	}
	assert.Equal(t, []string{"libz", "liba", "libm"}, names)
}
