package logsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSinkWritesKeyedFiles(t *testing.T) {
	root := t.TempDir()
	sink, err := NewDirSink(root)
	require.NoError(t, err)

	w, err := sink.Writer("bitcoind", "compile", "stdout")
	require.NoError(t, err)
	_, err = w.Write([]byte("gcc -O2 ...\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(root, "bitcoind", "compile.stdout.log"))
	require.NoError(t, err)
	assert.Equal(t, "gcc -O2 ...\n", string(data))
}

func TestDirSinkAppends(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	for _, chunk := range []string{"one\n", "two\n"} {
		w, err := sink.Writer("t", "test", "stderr")
		require.NoError(t, err)
		_, err = w.Write([]byte(chunk))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	data, err := os.ReadFile(filepath.Join(sink.root, "t", "test.stderr.log"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestDirSinkSanitizesTargetNames(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	w, err := sink.Writer("libs/ssl:custom", "link", "stdout")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(sink.root, "libs_ssl_custom"))
	require.NoError(t, err)
	assert.Contains(t, sink.Ref("libs/ssl:custom", "link"), "libs_ssl_custom")
}
