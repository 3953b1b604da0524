package resolver

import (
	"context"

	"github.com/shran-labs/shran/internal/config"
	"github.com/shran-labs/shran/internal/ctxlog"
)

// Plan is the resolver's output: build targets in topological order plus the
// dependency relation the pipeline uses for scheduling. It is read-only after
// Resolve returns and requires no synchronization.
type Plan struct {
	// Targets is the deterministic build order. Every library override
	// precedes every target that depends on it.
	Targets []*Target

	deps       map[string][]string
	dependents map[string][]string
}

// Dependencies returns the names the given target depends on.
func (p *Plan) Dependencies(name string) []string {
	return p.deps[name]
}

// Dependents returns the names of targets that depend on the given target.
func (p *Plan) Dependents(name string) []string {
	return p.dependents[name]
}

// Resolve constructs the dependency graph from the spec's library overrides
// and the fixed default-library edge set, then produces the ordered build
// plan. It fails with a *Error on cycles or unknown dependency names.
func Resolve(ctx context.Context, spec *config.Spec) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolver started.", "target", spec.Target, "overrides", len(spec.Libraries))

	g := newGraph()

	// Nodes in declaration order: overrides first, the node target last.
	// Declaration order is the topological tie-break.
	for _, lib := range spec.Libraries {
		g.addNode(&Target{Name: lib.Name, Kind: KindLibrary, Library: lib})
	}
	g.addNode(&Target{Name: spec.Target, Kind: KindNode})

	// Edges declared via requires. A requirement may name another override
	// (ordering edge) or a default library satisfied by the base toolchain
	// (no edge). Anything else is unresolvable.
	for _, lib := range spec.Libraries {
		libIdx := g.index[lib.Name]
		for _, req := range lib.Requires {
			if reqIdx, ok := g.index[req]; ok {
				g.addEdge(reqIdx, libIdx)
				continue
			}
			if config.IsDefaultLibrary(req) {
				continue
			}
			return nil, &Error{Kind: UnknownDependency, Name: req}
		}
	}

	// The fixed default edge set: the node target requires every override,
	// since the node links against the substituted artifacts.
	nodeIdx := g.index[spec.Target]
	for _, lib := range spec.Libraries {
		g.addEdge(g.index[lib.Name], nodeIdx)
	}

	order, ok := g.topoSort()
	if !ok {
		cycle := g.findCycle()
		names := make([]string, len(cycle))
		for i, idx := range cycle {
			names[i] = g.nodes[idx].Name
		}
		logger.Debug("Resolver found a cycle.", "participants", names)
		return nil, &Error{Kind: CycleDetected, Participants: names}
	}

	plan := &Plan{
		Targets:    make([]*Target, len(order)),
		deps:       make(map[string][]string, len(order)),
		dependents: make(map[string][]string, len(order)),
	}
	deps, dependents := g.adjacency()
	for i, idx := range order {
		t := g.nodes[idx]
		plan.Targets[i] = t
		for _, d := range deps[idx] {
			plan.deps[t.Name] = append(plan.deps[t.Name], g.nodes[d].Name)
		}
		for _, d := range dependents[idx] {
			plan.dependents[t.Name] = append(plan.dependents[t.Name], g.nodes[d].Name)
		}
	}

	logger.Debug("Resolver finished.", "order_len", len(plan.Targets))
	return plan, nil
}
