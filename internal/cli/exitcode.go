package cli

import (
	"errors"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/resolver"
)

// Exit codes reported to the shell. Malformed specs and unresolvable
// dependency graphs get distinct codes so scripted callers can tell a bad
// input from a failed build.
const (
	CodeSuccess    = 0
	CodeFailure    = 1
	CodeConfig     = 2
	CodeResolution = 3
)

// CodeForError maps an error from the run to its process exit code.
func CodeForError(err error) int {
	if err == nil {
		return CodeSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return CodeConfig
	}

	var resErr *resolver.Error
	if errors.As(err, &resErr) {
		return CodeResolution
	}

	return CodeFailure
}
