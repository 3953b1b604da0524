package resolver

import "github.com/shran-labs/shran/internal/config"

// Kind distinguishes the node binary target from its library overrides.
type Kind string

const (
	KindLibrary Kind = "library"
	KindNode    Kind = "node"
)

// Target is one unit of work advanced through the stage pipeline: the node
// binary itself or a single library override.
type Target struct {
	Name string
	Kind Kind

	// Library is the override this target builds. Nil for the node target.
	Library *config.Library
}

// graph is an owned arena of nodes plus index edges. Nodes are stored in
// declaration order; an edge (from, to) means `to` depends on `from`. Cycle
// detection and the topological sort operate purely on indices, so the
// structure contains no back-pointers by construction.
type graph struct {
	nodes []*Target
	index map[string]int
	edges [][2]int
}

func newGraph() *graph {
	return &graph{index: make(map[string]int)}
}

func (g *graph) addNode(t *Target) {
	if _, ok := g.index[t.Name]; ok {
		return
	}
	g.index[t.Name] = len(g.nodes)
	g.nodes = append(g.nodes, t)
}

func (g *graph) addEdge(from, to int) {
	g.edges = append(g.edges, [2]int{from, to})
}

// adjacency returns, per node index, the indices it depends on and the
// indices depending on it.
func (g *graph) adjacency() (deps, dependents [][]int) {
	deps = make([][]int, len(g.nodes))
	dependents = make([][]int, len(g.nodes))
	for _, e := range g.edges {
		from, to := e[0], e[1]
		deps[to] = append(deps[to], from)
		dependents[from] = append(dependents[from], to)
	}
	return deps, dependents
}

// topoSort returns node indices in topological order, breaking ties among
// ready nodes by declaration order so two runs over an identical spec always
// produce the same build order. The second return value is false when the
// graph contains a cycle.
func (g *graph) topoSort() ([]int, bool) {
	indegree := make([]int, len(g.nodes))
	_, dependents := g.adjacency()
	for _, e := range g.edges {
		indegree[e[1]]++
	}

	order := make([]int, 0, len(g.nodes))
	done := make([]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		picked := -1
		for i := range g.nodes {
			if !done[i] && indegree[i] == 0 {
				picked = i
				break
			}
		}
		if picked == -1 {
			return nil, false
		}
		done[picked] = true
		order = append(order, picked)
		for _, d := range dependents[picked] {
			indegree[d]--
		}
	}
	return order, true
}

// findCycle extracts one cycle from the graph as a list of node indices in
// cycle order. It must only be called after topoSort has reported a cycle.
func (g *graph) findCycle() []int {
	deps, _ := g.adjacency()

	const (
		unvisited = 0
		inStack   = 1
		finished  = 2
	)
	state := make([]int, len(g.nodes))
	var stack []int
	var cycle []int

	var visit func(n int) bool
	visit = func(n int) bool {
		state[n] = inStack
		stack = append(stack, n)
		for _, d := range deps[n] {
			switch state[d] {
			case inStack:
				// Slice the current stack from the first occurrence of d to
				// recover the cycle members in order.
				for i, s := range stack {
					if s == d {
						cycle = append(cycle, stack[i:]...)
						return true
					}
				}
			case unvisited:
				if visit(d) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = finished
		return false
	}

	for i := range g.nodes {
		if state[i] == unvisited && visit(i) {
			break
		}
	}
	return cycle
}
