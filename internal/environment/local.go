package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/shran-labs/shran/internal/ctxlog"
)

// LocalProvider executes stage commands directly against the host
// filesystem and toolchain.
type LocalProvider struct{}

// NewLocal returns a Provider backed by the host.
func NewLocal() *LocalProvider {
	return &LocalProvider{}
}

// Execute runs the command with os/exec, streaming output to the supplied
// writers. Context cancellation kills the process.
func (p *LocalProvider) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	if len(cmd.Argv) == 0 {
		return Outcome{ExitCode: -1}, errors.New("empty command")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing command locally.", "argv", cmd.Argv, "dir", cmd.Dir)

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = cmd.Dir
	proc.Stdout = cmd.Stdout
	proc.Stderr = cmd.Stderr
	proc.Env = os.Environ()
	for k, v := range cmd.Env {
		proc.Env = append(proc.Env, fmt.Sprintf("%s=%s", k, v))
	}

	err := proc.Run()
	if err == nil {
		return Outcome{ExitCode: 0}, nil
	}

	// A process that started and exited non-zero (or was killed) is an
	// Outcome, not a spawn failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Outcome{ExitCode: exitErr.ExitCode()}, nil
	}
	return Outcome{ExitCode: -1}, fmt.Errorf("spawning %q: %w", cmd.Argv[0], err)
}

// Close implements Provider. The local provider holds no run-scoped resources.
func (p *LocalProvider) Close(ctx context.Context) error {
	return nil
}
