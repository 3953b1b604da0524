package integration_tests

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shran-labs/shran/internal/app"
	"github.com/shran-labs/shran/internal/cli"
	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/resolver"
)

func TestCodeForError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"nil error is success", nil, cli.CodeSuccess},
		{"exit error carries its own code", &cli.ExitError{Code: 2, Message: "bad flag"}, 2},
		{"config error", &config.Error{Kind: config.MissingField, Field: "target"}, cli.CodeConfig},
		{"wrapped config error", fmt.Errorf("loading: %w", &config.Error{Kind: config.UnknownKey, Field: "flavor"}), cli.CodeConfig},
		{"resolution error", &resolver.Error{Kind: resolver.CycleDetected, Participants: []string{"a", "b"}}, cli.CodeResolution},
		{"pipeline failure", app.ErrPipelineFailed, cli.CodeFailure},
		{"unclassified error", errors.New("boom"), cli.CodeFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.code, cli.CodeForError(tc.err))
		})
	}
}
