package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	// Pending and Running are the in-flight phases of a result's lifecycle;
	// only the last three may be reported back to the controller.
	assert.False(t, Pending.Terminal())
	assert.False(t, Running.Terminal())

	assert.True(t, Succeeded.Terminal())
	assert.True(t, Failed.Terminal())
	assert.True(t, Skipped.Terminal())
}
