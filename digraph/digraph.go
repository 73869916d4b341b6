package digraph

import (
	"github.com/mgijax/wts/set"
)

// Digraph is a set of nodes and directed arcs with a lazily computed,
// cached transitive closure.
//
// The closure is only correct when the arcs form a DAG. Cycles are not
// detected here: the walk still terminates but the result is wrong.
// Callers must reject cycle-forming arcs before adding them.
type Digraph struct {
	arcs    *ArcSet
	nodes   *set.Set[NodeID]
	closure *ArcSet
	dirty   bool

	recomputations int
}

// New returns a Digraph holding arcs and their endpoints.
func New(arcs ...Arc) *Digraph {
	g := &Digraph{
		arcs:    NewArcSet(),
		nodes:   set.New[NodeID](),
		closure: NewArcSet(),
	}
	g.AddArcs(arcs...)
	return g
}

// AddArc adds arc and both of its endpoints.
func (g *Digraph) AddArc(arc Arc) {
	g.arcs.AddArc(arc)
	g.nodes.Add(arc.from, arc.to)
	g.dirty = true
}

// AddArcs adds every arc.
func (g *Digraph) AddArcs(arcs ...Arc) {
	for _, arc := range arcs {
		g.AddArc(arc)
	}
}

// RemoveArc removes arc. Its endpoints stay in the graph.
func (g *Digraph) RemoveArc(arc Arc) {
	g.arcs.RemoveArc(arc)
	g.dirty = true
}

// RemoveArcs removes every arc.
func (g *Digraph) RemoveArcs(arcs ...Arc) {
	for _, arc := range arcs {
		g.RemoveArc(arc)
	}
}

// AddNodes adds nodes, which need not have any arcs.
func (g *Digraph) AddNodes(nodes ...NodeID) {
	g.nodes.Add(nodes...)
	g.dirty = true
}

// RemoveNodes removes nodes along with every arc touching them.
func (g *Digraph) RemoveNodes(nodes ...NodeID) {
	gone := set.New(nodes...)
	for _, arc := range g.arcs.Arcs() {
		if gone.Contains(arc.from) || gone.Contains(arc.to) {
			g.arcs.RemoveArc(arc)
		}
	}
	g.nodes.Remove(nodes...)
	g.dirty = true
}

// Arcs returns the direct arcs, unordered.
func (g *Digraph) Arcs() []Arc {
	return g.arcs.Arcs()
}

// Nodes returns the nodes, unordered.
func (g *Digraph) Nodes() []NodeID {
	return g.nodes.Values()
}

// Recomputations reports how many times the closure has been computed.
func (g *Digraph) Recomputations() int {
	return g.recomputations
}

// TransitiveClosure returns the reflexive transitive closure: (n, m) for
// every node n and every m reachable from n, including n itself.
// The returned set is cached and shared until the next mutation; callers
// must not modify it.
func (g *Digraph) TransitiveClosure() *ArcSet {
	if !g.dirty {
		return g.closure
	}

	// children[n] = {n} ∪ successors(n); the self entry makes the closure
	// reflexive.
	children := make(map[NodeID][]NodeID, g.nodes.Count())
	roots := g.nodes.Clone()
	for _, n := range g.nodes.Values() {
		children[n] = []NodeID{n}
	}
	for _, arc := range g.arcs.Arcs() {
		children[arc.from] = append(children[arc.from], arc.to)
		roots.Remove(arc.to)
	}

	memo := reachable(roots.Values(), children)

	closure := NewArcSet()
	for from, members := range memo {
		for _, to := range members.Values() {
			closure.AddArc(Arc{from: from, to: to})
		}
	}

	g.closure = closure
	g.dirty = false
	g.recomputations++
	return closure
}

type frame struct {
	node NodeID
	next int
}

// reachable walks children depth first from every root and returns, for
// each visited node, the set of nodes reachable from it. Each node's set is
// built once regardless of how many parents reach it. Nodes that are only
// reachable from a cycle are never visited.
func reachable(roots []NodeID, children map[NodeID][]NodeID) map[NodeID]*set.Set[NodeID] {
	memo := make(map[NodeID]*set.Set[NodeID], len(children))
	var stack []frame

	for _, root := range roots {
		if _, seen := memo[root]; seen {
			continue
		}
		memo[root] = set.New(children[root]...)
		stack = append(stack[:0], frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.node]

			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				if _, seen := memo[child]; !seen {
					memo[child] = set.New(children[child]...)
					stack = append(stack, frame{node: child})
				}
				continue
			}

			own := memo[top.node]
			for _, child := range kids {
				if child != top.node {
					own.Add(memo[child].Values()...)
				}
			}
			stack = stack[:len(stack)-1]
		}
	}
	return memo
}
