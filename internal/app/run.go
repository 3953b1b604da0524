package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
	"github.com/shran-labs/shran/internal/environment"
	"github.com/shran-labs/shran/internal/fsutil"
	"github.com/shran-labs/shran/internal/logsink"
	"github.com/shran-labs/shran/internal/pipeline"
	"github.com/shran-labs/shran/internal/resolver"
	"github.com/shran-labs/shran/internal/stage"
)

// Run executes the full lifecycle: load the spec, resolve the build order,
// make the source tree available, then drive the pipeline and print the
// report. Error categories propagate to the caller for exit-code mapping.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	loader, err := loaderFor(a.cfg.SpecPath)
	if err != nil {
		return err
	}
	spec, err := loader.Load(ctx, a.cfg.SpecPath)
	if err != nil {
		return err
	}
	a.logger.Debug("Specification loaded.", "target", spec.Target, "libraries", len(spec.Libraries))

	plan, err := resolver.Resolve(ctx, spec)
	if err != nil {
		return err
	}
	a.logger.Info("Build order resolved.", "targets", len(plan.Targets))

	workDir := spec.WorkDir
	if a.cfg.Offline {
		a.logger.Info("Offline mode: skipping ref resolution and source fetch.")
		if workDir == "" {
			workDir = "."
		}
	} else if workDir == "" {
		workDir, err = a.ensureSource(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to prepare source tree: %w", err)
		}
	}
	spec.WorkDir = workDir

	provider, err := a.newProvider(ctx, spec, workDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Failed to shut down execution environment.", "error", err)
		}
	}()

	sink, err := a.newSink(spec)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Starting build pipeline.", "target", spec.Target, "mode", spec.ExecutionMode, "workers", a.cfg.WorkerCount)
	exec := stage.NewExecutor(provider, sink)
	ctrl := pipeline.NewController(exec, a.cfg.WorkerCount)
	report := ctrl.Run(ctx, spec, plan)

	a.printSummary(report, plan)
	if !report.Succeeded() {
		return ErrPipelineFailed
	}
	return nil
}

// newProvider builds the execution environment the spec asks for.
func (a *App) newProvider(ctx context.Context, spec *config.Spec, workDir string) (environment.Provider, error) {
	switch spec.ExecutionMode {
	case config.ModeContainer:
		mounts := make([]string, 0, len(spec.Libraries))
		for _, lib := range spec.Libraries {
			abs, err := filepath.Abs(lib.Source)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve library source %s: %w", lib.Source, err)
			}
			mounts = append(mounts, abs)
		}
		absWork, err := filepath.Abs(workDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workspace %s: %w", workDir, err)
		}
		return environment.NewContainer(ctx, environment.ContainerOptions{
			Image:          spec.Image,
			Workspace:      absWork,
			ReadOnlyMounts: mounts,
		})
	default:
		return environment.NewLocal(), nil
	}
}

// newSink opens the per-run log directory under the cache dir. Stage output
// is append-only; the engine never reads it back.
func (a *App) newSink(spec *config.Spec) (logsink.Sink, error) {
	cacheDir, err := fsutil.CacheDir()
	if err != nil {
		return nil, err
	}
	runDir := filepath.Join(cacheDir, "logs", fmt.Sprintf("%s-%d", spec.Target, time.Now().Unix()))
	return logsink.NewDirSink(runDir)
}
