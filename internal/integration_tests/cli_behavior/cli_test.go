package integration_tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/shran-labs/shran/internal/app"
	"github.com/shran-labs/shran/internal/cli"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-spec", "/test/build.hcl",
				"--log-level=debug",
				"--log-format=text",
				"--workers=8",
				"--offline",
				"--token=sekrit",
			},
			expectedConfig: &app.Config{
				SpecPath:    "/test/build.hcl",
				LogLevel:    "debug",
				LogFormat:   "text",
				WorkerCount: 8,
				Offline:     true,
				Token:       "sekrit",
			},
		},
		{
			name:       "Shorthand flag and defaults",
			args:       []string{"-s", "/short/build.yaml"},
			expectExit: false,
			expectErr:  false,
			expectedConfig: &app.Config{
				SpecPath:    "/short/build.yaml",
				LogLevel:    "info",
				LogFormat:   "json",
				WorkerCount: 4,
			},
		},
		{
			name:       "Positional argument for path",
			args:       []string{"/positional/build.hcl"},
			expectExit: false,
			expectErr:  false,
			expectedConfig: &app.Config{
				SpecPath:    "/positional/build.hcl",
				LogLevel:    "info",
				LogFormat:   "json",
				WorkerCount: 4,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			expectErr:  false,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:       "No path triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			expectErr:  false,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"--log-level=foo", "/path.hcl"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"--log-format=xml", "/path.hcl"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			appConfig, shouldExit, err := cli.Parse(tc.args, out)

			// --- Assert ---
			if tc.expectErr {
				require.Error(t, err)
				_, isExitError := err.(*cli.ExitError)
				require.True(t, isExitError, "Expected error to be of type ExitError")
				return // End test here if an error is expected
			}
			require.NoError(t, err)

			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, appConfig); diff != "" {
					t.Errorf("Config mismatch (-want +got):\n%s", diff)
				}
			}

			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}
