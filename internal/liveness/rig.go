package liveness

// RIGraph is a register interference graph: one node per local
// variable (parameters included), edges between variables that were
// ever simultaneously live. Grounded in graphs.py's RIGraph, which
// builds Colors via a greedy pass and then tightens it with a
// brute-force search once an exact chromatic number is affordable to
// compute; this port adds a Bron-Kerbosch maximal-clique lower bound
// (absent from the original, which only left it commented out) so the
// brute-force search has a tighter starting point than 1.
type RIGraph struct {
	Nodes []string
	adj   map[string]map[string]struct{}
	Colors map[string]int

	// MinRegisters is the graph's chromatic number: the minimum count
	// of registers that can hold every local without two interfering
	// variables sharing one. When the graph exceeds bruteForceLimit it
	// is the greedy upper bound instead.
	MinRegisters int
}

// NewRIGraph builds the graph from a function's locals (in
// declaration order, so coloring output is deterministic) and the
// live-in sets computed for its CFG.
func NewRIGraph(locals []string, interferenceSets []map[string]struct{}) *RIGraph {
	g := &RIGraph{
		Nodes: locals,
		adj:   make(map[string]map[string]struct{}, len(locals)),
	}
	for _, n := range locals {
		g.adj[n] = make(map[string]struct{})
	}
	for _, set := range interferenceSets {
		if len(set) < 2 {
			continue
		}
		for a := range set {
			for b := range set {
				if a == b {
					continue
				}
				if _, ok := g.adj[a]; ok {
					g.adj[a][b] = struct{}{}
				}
			}
		}
	}
	g.computeChromaticNumber()
	return g
}

// Neighbors returns every node interfering with name.
func (g *RIGraph) Neighbors(name string) []string {
	out := make([]string, 0, len(g.adj[name]))
	for n := range g.adj[name] {
		out = append(out, n)
	}
	return out
}

func (g *RIGraph) greedyColoring() (int, map[string]int) {
	colors := make(map[string]int, len(g.Nodes))
	for _, node := range g.Nodes {
		used := make(map[int]bool)
		for neighbor := range g.adj[node] {
			if c, ok := colors[neighbor]; ok {
				used[c] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		colors[node] = c
	}
	distinct := make(map[int]struct{})
	for _, c := range colors {
		distinct[c] = struct{}{}
	}
	return len(distinct), colors
}

func (g *RIGraph) isValidColoring(coloring map[string]int) bool {
	for node, neighbors := range g.adj {
		for neighbor := range neighbors {
			if coloring[node] == coloring[neighbor] {
				return false
			}
		}
	}
	return true
}

// cliqueLowerBound runs Bron-Kerbosch with pivoting to find the
// largest clique in the interference graph; any clique of size k
// forces at least k colors, giving the brute-force search a floor
// tighter than 1.
func (g *RIGraph) cliqueLowerBound() int {
	best := 0
	var bk func(r, p, x map[string]struct{})
	bk = func(r, p, x map[string]struct{}) {
		if len(p) == 0 && len(x) == 0 {
			if len(r) > best {
				best = len(r)
			}
			return
		}
		pivot := ""
		for v := range unionSet(p, x) {
			pivot = v
			break
		}
		candidates := make(map[string]struct{})
		for v := range p {
			if _, adjacent := g.adj[pivot][v]; !adjacent {
				candidates[v] = struct{}{}
			}
		}
		for v := range candidates {
			rPrime := unionSet(r, map[string]struct{}{v: {}})
			pPrime := intersectSet(p, g.adj[v])
			xPrime := intersectSet(x, g.adj[v])
			bk(rPrime, pPrime, xPrime)
			delete(p, v)
			x[v] = struct{}{}
		}
	}
	p := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		p[n] = struct{}{}
	}
	bk(map[string]struct{}{}, p, make(map[string]struct{}))
	if best == 0 && len(g.Nodes) > 0 {
		return 1
	}
	return best
}

func unionSet(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for v := range a {
		out[v] = struct{}{}
	}
	for v := range b {
		out[v] = struct{}{}
	}
	return out
}

func intersectSet(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for v := range a {
		if _, ok := b[v]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

// bruteForceLimit caps both the node count and the greedy color count
// for which the exhaustive search runs: with both at most this value,
// the search visits at most 7^7 color assignments.
const bruteForceLimit = 7

// computeChromaticNumber starts from the greedy upper bound and the
// clique lower bound, then exhaustively searches between them for a
// smaller valid coloring when the graph is small enough to afford it.
func (g *RIGraph) computeChromaticNumber() {
	upper, bestColoring := g.greedyColoring()
	if len(g.Nodes) == 0 {
		g.Colors, g.MinRegisters = bestColoring, 0
		return
	}
	lower := g.cliqueLowerBound()

	if len(g.Nodes) <= bruteForceLimit && upper <= bruteForceLimit {
		for k := lower; k < upper; k++ {
			if coloring, ok := g.searchColoring(k); ok {
				bestColoring = coloring
				upper = k
				break
			}
		}
	}
	g.Colors = bestColoring
	g.MinRegisters = upper
}

// searchColoring runs a backtracking search over assignments of k
// colors to the nodes, in node order, dropping a partial assignment as
// soon as it conflicts, and returns the first valid one found.
func (g *RIGraph) searchColoring(k int) (map[string]int, bool) {
	assignment := make(map[string]int, len(g.Nodes))
	var try func(i int) bool
	try = func(i int) bool {
		if i == len(g.Nodes) {
			return g.isValidColoring(assignment)
		}
		node := g.Nodes[i]
		for c := 0; c < k; c++ {
			assignment[node] = c
			ok := true
			for neighbor := range g.adj[node] {
				if a, seen := assignment[neighbor]; seen && a == c {
					ok = false
					break
				}
			}
			if ok && try(i+1) {
				return true
			}
		}
		delete(assignment, node)
		return false
	}
	if try(0) {
		out := make(map[string]int, len(assignment))
		for k, v := range assignment {
			out[k] = v
		}
		return out, true
	}
	return nil, false
}
