package environment

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopWriteCloserPassesThroughAndKeepsStreamOpen(t *testing.T) {
	buf := &bytes.Buffer{}
	wc := nopWriteCloser{buf}

	n, err := wc.Write([]byte("checking config"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	// Closing the wrapper must not touch the underlying stream; the sink
	// still owns it and keeps appending.
	require.NoError(t, wc.Close())
	_, err = wc.Write([]byte(" ..."))
	require.NoError(t, err)
	assert.Equal(t, "checking config ...", buf.String())
}

func TestNewContainerRequiresImage(t *testing.T) {
	_, err := NewContainer(context.Background(), ContainerOptions{Workspace: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image is required")
}
