package app

import (
	"fmt"
	"time"

	"github.com/shran-labs/shran/internal/pipeline"
	"github.com/shran-labs/shran/internal/resolver"
	"github.com/shran-labs/shran/internal/stage"
)

const timeResolution = 10 * time.Millisecond

// printSummary writes the per-target, per-stage outcome table to the
// application's output writer, in resolved build order.
func (a *App) printSummary(report *pipeline.Report, plan *resolver.Plan) {
	fmt.Fprintln(a.outW)
	fmt.Fprintln(a.outW, "Build report:")

	for _, target := range plan.Targets {
		state := report.TargetState(target.Name)
		fmt.Fprintf(a.outW, "  %s [%s]\n", target.Name, state)

		for _, res := range report.TargetResults(target.Name) {
			line := fmt.Sprintf("    %-10s %s", res.Stage, res.Status)
			if res.Status == stage.Failed {
				line += fmt.Sprintf(" (%s, exit %d)", res.Reason, res.ExitCode)
			}
			if res.Duration > 0 {
				line += fmt.Sprintf("  %s", res.Duration.Round(timeResolution))
			}
			if res.LogRef != "" {
				line += fmt.Sprintf("  logs: %s", res.LogRef)
			}
			fmt.Fprintln(a.outW, line)
		}
	}

	if report.Succeeded() {
		fmt.Fprintln(a.outW, "Result: SUCCESS")
	} else {
		fmt.Fprintln(a.outW, "Result: FAILURE")
	}
}
