// Package liveness computes, for every function, a control-flow graph,
// the live-variable sets that flow backward across it, a register
// interference graph built from variables simultaneously live, and
// that graph's chromatic number.
//
// Grounded in the original implementation's graphs.py (CFNode/CFGraph/
// RIGraph) and liveness_analysis.py (the AST walk that builds a CFGraph
// per function). The original's CFNode fields are named `ins`/`outs`
// but are used as a def set (killed going backward) and a use set
// (added going backward) respectively — a naming choice this package
// does not carry over; they are named Defs/Uses here instead.
package liveness

// CFNode is one control-flow-graph node: the variables it defines
// (written) and uses (read). One node corresponds to one instruction,
// to a branch/loop condition evaluation, to a function's entry (which
// defines its parameters), or to the merge point after an if-structure.
type CFNode struct {
	ID   int
	Defs map[string]struct{}
	Uses map[string]struct{}
}

func newCFNode() *CFNode {
	return &CFNode{Defs: make(map[string]struct{}), Uses: make(map[string]struct{})}
}

func (n *CFNode) addDef(name string) { n.Defs[name] = struct{}{} }
func (n *CFNode) addUse(name string) { n.Uses[name] = struct{}{} }

// CFGraph is one function's control-flow graph.
type CFGraph struct {
	Nodes []*CFNode
	adj   map[int]map[int]struct{}
}

func NewCFGraph() *CFGraph {
	return &CFGraph{adj: make(map[int]map[int]struct{})}
}

// AddNode appends a node and returns its id.
func (g *CFGraph) AddNode(n *CFNode) int {
	id := len(g.Nodes)
	n.ID = id
	g.Nodes = append(g.Nodes, n)
	g.adj[id] = make(map[int]struct{})
	return id
}

// AddEdge records a control-flow successor edge from -> to.
func (g *CFGraph) AddEdge(from, to int) {
	g.adj[from][to] = struct{}{}
}

// successors returns every node id reachable in one control-flow step
// from id.
func (g *CFGraph) successors(id int) []int {
	out := make([]int, 0, len(g.adj[id]))
	for s := range g.adj[id] {
		out = append(out, s)
	}
	return out
}

// LiveSets computes, for every node, the set of variables live
// entering that node (live-in), via the standard backward dataflow
// fixpoint: live_in(n) = uses(n) ∪ (live_out(n) \ defs(n)), live_out(n)
// = ⋃ live_in(successors(n)).
func (g *CFGraph) LiveSets() map[int]map[string]struct{} {
	liveIn := make(map[int]map[string]struct{}, len(g.Nodes))
	liveOut := make(map[int]map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		liveIn[n.ID] = make(map[string]struct{})
		liveOut[n.ID] = make(map[string]struct{})
	}

	changed := true
	for changed {
		changed = false
		for _, n := range g.Nodes {
			out := make(map[string]struct{})
			for _, succ := range g.successors(n.ID) {
				for v := range liveIn[succ] {
					out[v] = struct{}{}
				}
			}

			in := make(map[string]struct{})
			for v := range n.Uses {
				in[v] = struct{}{}
			}
			for v := range out {
				if _, killed := n.Defs[v]; !killed {
					in[v] = struct{}{}
				}
			}

			if !setEqual(in, liveIn[n.ID]) || !setEqual(out, liveOut[n.ID]) {
				changed = true
			}
			liveIn[n.ID] = in
			liveOut[n.ID] = out
		}
	}
	return liveIn
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

// InterferenceSets returns every live-in set of size >= 2, the
// groupings RIGraph needs to derive interference edges from (a
// singleton set has no co-live pair).
func (g *CFGraph) InterferenceSets() []map[string]struct{} {
	live := g.LiveSets()
	var sets []map[string]struct{}
	for _, n := range g.Nodes {
		if len(live[n.ID]) >= 2 {
			sets = append(sets, live[n.ID])
		}
	}
	return sets
}
