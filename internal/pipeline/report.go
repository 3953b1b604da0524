package pipeline

import (
	"sync"

	"github.com/shran-labs/shran/internal/stage"
)

// Report is the aggregated outcome of a run: every StageResult in completion
// order plus each target's terminal state. The controller appends to it while
// the run is live, so a caller holding a reference can observe progress;
// appends are serialized behind one mutex since append order is the only
// invariant that matters. Finalize freezes it at run end.
type Report struct {
	mu        sync.Mutex
	results   []*stage.Result
	states    map[string]State
	finalized bool
}

func newReport() *Report {
	return &Report{states: make(map[string]State)}
}

func (r *Report) append(res *stage.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic("pipeline: append to finalized report")
	}
	r.results = append(r.results, res)
}

func (r *Report) setState(target string, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		panic("pipeline: state change on finalized report")
	}
	r.states[target] = s
}

func (r *Report) finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
}

// Results returns a snapshot of the stage results recorded so far.
func (r *Report) Results() []*stage.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*stage.Result, len(r.results))
	copy(out, r.results)
	return out
}

// TargetResults returns the results recorded for one target, in order.
func (r *Report) TargetResults(target string) []*stage.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*stage.Result
	for _, res := range r.results {
		if res.Target == target {
			out = append(out, res)
		}
	}
	return out
}

// TargetState returns the recorded state of a target.
func (r *Report) TargetState(target string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[target]; ok {
		return s
	}
	return Queued
}

// Succeeded reports the overall outcome: true only when no stage failed.
// A recorded-but-allowed test failure still counts as a failing run signal.
func (r *Report) Succeeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Status == stage.Failed {
			return false
		}
	}
	return true
}
