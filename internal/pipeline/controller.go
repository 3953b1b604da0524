// Package pipeline is the orchestration layer of the application. It drives
// every resolved target through the fixed stage order, running independent
// targets concurrently while targets connected by a dependency edge execute
// sequentially, and aggregates per-stage results into the run's Report.
package pipeline

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
	"github.com/shran-labs/shran/internal/resolver"
	"github.com/shran-labs/shran/internal/stage"
)

// haltRunStages are the stages whose failure cancels the whole run: later
// stages depend on an artifact that does not exist, so continuing any target
// is unsafe.
var haltRunStages = map[config.Stage]bool{
	config.StageCompile: true,
	config.StageLink:    true,
	config.StageDeploy:  true,
}

const (
	runQueued int32 = iota
	runRunning
	runSettled
)

// targetRun is the controller's mutable bookkeeping for one target.
type targetRun struct {
	target  *resolver.Target
	pending int64 // unfinished dependencies
	state   int32 // runQueued -> runRunning -> runSettled
}

// Controller drives the per-target state machines over a worker pool.
type Controller struct {
	exec    *stage.Executor
	workers int
}

// NewController returns a Controller dispatching stage runs to the given
// executor with at most workers concurrent target pipelines.
func NewController(exec *stage.Executor, workers int) *Controller {
	if workers < 1 {
		workers = 1
	}
	return &Controller{exec: exec, workers: workers}
}

// Run executes the plan and returns the finalized report. The returned
// report is complete even when the run was cancelled or had failing targets;
// callers branch on report.Succeeded.
func (c *Controller) Run(ctx context.Context, spec *config.Spec, plan *resolver.Plan) *Report {
	logger := ctxlog.FromContext(ctx)
	report := newReport()

	runs := make(map[string]*targetRun, len(plan.Targets))
	for _, t := range plan.Targets {
		runs[t.Name] = &targetRun{
			target:  t,
			pending: int64(len(plan.Dependencies(t.Name))),
		}
		report.setState(t.Name, Queued)
	}

	// Run-wide cancellation: a halt-stage failure or an external signal
	// marks everything still queued or in flight for forced termination.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	readyChan := make(chan *targetRun, len(plan.Targets))
	var wg sync.WaitGroup
	wg.Add(len(plan.Targets))

	workers := c.workers
	if workers > len(plan.Targets) {
		workers = len(plan.Targets)
	}
	for i := 0; i < workers; i++ {
		go c.worker(runCtx, i, spec, plan, runs, readyChan, report, cancel, &wg)
	}

	// Seed the pool in plan order so the first round of independent targets
	// starts deterministically.
	for _, t := range plan.Targets {
		if runs[t.Name].pending == 0 {
			readyChan <- runs[t.Name]
		}
	}

	wg.Wait()
	close(readyChan)
	report.finalize()

	logger.Info("🏁 Pipeline finished.", "targets", len(plan.Targets), "succeeded", report.Succeeded())
	return report
}

// worker is the processing loop for a single concurrent worker. Each item it
// picks up is one target's entire pipeline.
func (c *Controller) worker(ctx context.Context, id int, spec *config.Spec, plan *resolver.Plan, runs map[string]*targetRun, readyChan chan *targetRun, report *Report, cancel context.CancelFunc, wg *sync.WaitGroup) {
	logger := ctxlog.FromContext(ctx).With("workerID", id)

	for tr := range readyChan {
		if !atomic.CompareAndSwapInt32(&tr.state, runQueued, runRunning) {
			// Settled while queued, e.g. a dependency failed after another
			// dependency had already unlocked it.
			continue
		}
		workerLogger := logger.With("target", tr.target.Name)

		if ctx.Err() != nil {
			workerLogger.Debug("Target cancelled before start.")
			c.recordCancelled(spec, tr, report)
			c.settle(tr, Failed, report, wg)
			c.failDependents(ctx, spec, plan, runs, tr, report, wg)
			continue
		}

		workerLogger.Debug("Worker picked up target.")
		ok := c.runTarget(ctx, spec, tr, report, cancel)
		if !ok {
			workerLogger.Warn("Target pipeline failed.")
			c.settle(tr, Failed, report, wg)
			c.failDependents(ctx, spec, plan, runs, tr, report, wg)
			continue
		}

		workerLogger.Debug("Target pipeline succeeded.")
		c.settle(tr, Succeeded, report, wg)
		for _, name := range plan.Dependents(tr.target.Name) {
			dep := runs[name]
			if atomic.AddInt64(&dep.pending, -1) == 0 {
				workerLogger.Debug("Unlocking dependent target.", "dependent", name)
				readyChan <- dep
			}
		}
	}
}

// runTarget advances one target through the fixed stage order. It returns
// false when the target terminates in Failed. On a halt-stage failure it
// cancels the whole run.
func (c *Controller) runTarget(ctx context.Context, spec *config.Spec, tr *targetRun, report *Report, cancel context.CancelFunc) bool {
	for _, st := range config.StageOrder {
		if ctx.Err() != nil {
			res := stage.CancelledResult(tr.target, st)
			report.append(res)
			return false
		}

		if !spec.Policy(st).Enabled {
			report.append(c.exec.Skip(tr.target, st))
			continue
		}

		// A library override's replacement artifact must exist before its
		// compile stage begins; a dangling source path fails the target the
		// same way a configure failure does.
		if st == config.StageCompile && tr.target.Library != nil {
			if _, statErr := os.Stat(tr.target.Library.Source); statErr != nil {
				ctxlog.FromContext(ctx).Error("Library override source is not resolvable.",
					"target", tr.target.Name, "source", tr.target.Library.Source)
				report.setState(tr.target.Name, stateFor(st))
				report.append(&stage.Result{
					Target:   tr.target.Name,
					Stage:    st,
					Status:   stage.Failed,
					Reason:   stage.SourceUnresolvable,
					ExitCode: -1,
					Err:      statErr,
				})
				return false
			}
		}

		report.setState(tr.target.Name, stateFor(st))
		res := c.exec.Run(ctx, spec, tr.target, st)
		report.append(res)

		if res.Status != stage.Failed {
			continue
		}

		if st == config.StageTest && spec.AllowTestFailure && res.Reason == stage.NonZeroExit {
			// Recorded but non-blocking; packaging and deploy proceed.
			continue
		}
		if haltRunStages[st] {
			ctxlog.FromContext(ctx).Error("Halting run: artifact-producing stage failed.",
				"target", res.Target, "stage", res.Stage, "exit_code", res.ExitCode)
			cancel()
		}
		return false
	}
	return true
}

// recordCancelled appends the single Failed+Cancelled result a target gets
// when the run-wide cancellation catches it before or between stages: the
// first stage it would have run.
func (c *Controller) recordCancelled(spec *config.Spec, tr *targetRun, report *Report) {
	for _, st := range config.StageOrder {
		if spec.Policy(st).Enabled {
			report.append(stage.CancelledResult(tr.target, st))
			return
		}
	}
}

// failDependents recursively settles every target depending on a failed one,
// recording a DependencyFailed result for the first stage each would have
// run.
func (c *Controller) failDependents(ctx context.Context, spec *config.Spec, plan *resolver.Plan, runs map[string]*targetRun, tr *targetRun, report *Report, wg *sync.WaitGroup) {
	for _, name := range plan.Dependents(tr.target.Name) {
		dep := runs[name]
		if !atomic.CompareAndSwapInt32(&dep.state, runQueued, runSettled) {
			continue
		}
		ctxlog.FromContext(ctx).Debug("Skipping dependent of failed target.", "dependent", name, "failed", tr.target.Name)
		reason := stage.DependencyFailed
		if ctx.Err() != nil {
			// Under run-wide cancellation every queued target reports
			// Cancelled, not a dependency problem.
			reason = stage.Cancelled
		}
		report.append(&stage.Result{
			Target:   name,
			Stage:    firstEnabledStage(spec),
			Status:   stage.Failed,
			Reason:   reason,
			ExitCode: -1,
		})
		report.setState(name, Failed)
		wg.Done()
		c.failDependents(ctx, spec, plan, runs, dep, report, wg)
	}
}

// settle marks a target terminal exactly once.
func (c *Controller) settle(tr *targetRun, s State, report *Report, wg *sync.WaitGroup) {
	atomic.StoreInt32(&tr.state, runSettled)
	report.setState(tr.target.Name, s)
	wg.Done()
}

func firstEnabledStage(spec *config.Spec) config.Stage {
	for _, st := range config.StageOrder {
		if spec.Policy(st).Enabled {
			return st
		}
	}
	return config.StageConfigure
}
