package stage

import (
	"context"
	"errors"
	"time"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
	"github.com/shran-labs/shran/internal/environment"
	"github.com/shran-labs/shran/internal/logsink"
	"github.com/shran-labs/shran/internal/resolver"
)

// Executor runs individual pipeline stages through an environment provider,
// capturing exit status, output, and timing. It never retries.
type Executor struct {
	env  environment.Provider
	sink logsink.Sink
}

// NewExecutor returns an Executor bound to a provider and a log sink for the
// duration of a run.
func NewExecutor(env environment.Provider, sink logsink.Sink) *Executor {
	return &Executor{env: env, sink: sink}
}

// Run executes one stage for one target and returns its terminal Result.
// The stage's timeout, command, and working directory come from the spec;
// a zero timeout means the process is unbounded.
func (e *Executor) Run(ctx context.Context, spec *config.Spec, target *resolver.Target, st config.Stage) *Result {
	logger := ctxlog.FromContext(ctx).With("target", target.Name, "stage", st)

	// The result starts Pending; it only becomes Running once the process is
	// actually handed to the provider.
	res := &Result{
		Target: target.Name,
		Stage:  st,
		Status: Pending,
		LogRef: e.sink.Ref(target.Name, string(st)),
	}

	policy := spec.Policy(st)
	runCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	stdout, err := e.sink.Writer(target.Name, string(st), "stdout")
	if err != nil {
		return e.fail(res, SpawnFailed, -1, 0, err)
	}
	defer stdout.Close()
	stderr, err := e.sink.Writer(target.Name, string(st), "stderr")
	if err != nil {
		return e.fail(res, SpawnFailed, -1, 0, err)
	}
	defer stderr.Close()

	cmd := environment.Command{
		Argv:   spec.Command(st),
		Dir:    spec.WorkDir,
		Env:    stageEnv(spec, target, st),
		Stdout: stdout,
		Stderr: stderr,
	}

	logger.Info("▶️ Stage started.", "argv", cmd.Argv)
	res.Status = Running
	start := time.Now()
	outcome, execErr := e.env.Execute(runCtx, cmd)
	elapsed := time.Since(start)

	switch {
	case execErr != nil:
		reason := SpawnFailed
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			reason = TimedOut
		case errors.Is(ctx.Err(), context.Canceled):
			reason = Cancelled
		}
		logger.Error("Stage failed before completion.", "reason", reason, "error", execErr)
		return e.fail(res, reason, outcome.ExitCode, elapsed, execErr)

	case outcome.ExitCode != 0:
		// The executor never interprets exit codes beyond zero/non-zero.
		reason := NonZeroExit
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			reason = TimedOut
		case errors.Is(ctx.Err(), context.Canceled):
			reason = Cancelled
		}
		logger.Warn("Stage exited non-zero.", "exit_code", outcome.ExitCode, "reason", reason)
		return e.fail(res, reason, outcome.ExitCode, elapsed, nil)
	}

	res.Status = Succeeded
	res.ExitCode = 0
	res.Duration = elapsed
	logger.Info("✅ Stage succeeded.", "duration", elapsed)
	return res
}

// Skip produces the terminal Skipped result for a stage disabled in the spec.
func (e *Executor) Skip(target *resolver.Target, st config.Stage) *Result {
	return &Result{
		Target: target.Name,
		Stage:  st,
		Status: Skipped,
	}
}

// CancelledResult produces the Failed+Cancelled result recorded for a stage
// that was queued or in flight when the run-wide cancellation fired.
func CancelledResult(target *resolver.Target, st config.Stage) *Result {
	return &Result{
		Target:   target.Name,
		Stage:    st,
		Status:   Failed,
		Reason:   Cancelled,
		ExitCode: -1,
	}
}

func (e *Executor) fail(res *Result, reason Reason, exitCode int, elapsed time.Duration, err error) *Result {
	res.Status = Failed
	res.Reason = reason
	res.ExitCode = exitCode
	res.Duration = elapsed
	res.Err = err
	return res
}

// stageEnv is the environment the stage command sees in addition to the
// host's (or image's) own.
func stageEnv(spec *config.Spec, target *resolver.Target, st config.Stage) map[string]string {
	env := map[string]string{
		"SHRAN_TARGET":     target.Name,
		"SHRAN_STAGE":      string(st),
		"SHRAN_SOURCE_REF": spec.SourceRef,
	}
	if target.Library != nil {
		env["SHRAN_LIBRARY_SOURCE"] = target.Library.Source
	}
	return env
}
