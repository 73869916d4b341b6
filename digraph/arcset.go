package digraph

import (
	"sort"

	"github.com/mgijax/wts/set"
)

// ArcSet is a collection of unique arcs indexed by origin node.
// An origin whose destination set becomes empty is dropped.
type ArcSet struct {
	arcs map[NodeID]*set.Set[NodeID]
}

// NewArcSet returns an ArcSet holding arcs.
func NewArcSet(arcs ...Arc) *ArcSet {
	s := &ArcSet{arcs: make(map[NodeID]*set.Set[NodeID])}
	s.AddArcs(arcs...)
	return s
}

// AddArc inserts arc. Adding an existing arc is a no-op.
func (s *ArcSet) AddArc(arc Arc) {
	if s.arcs == nil {
		s.arcs = make(map[NodeID]*set.Set[NodeID])
	}
	dests, ok := s.arcs[arc.from]
	if !ok {
		dests = set.New[NodeID]()
		s.arcs[arc.from] = dests
	}
	dests.Add(arc.to)
}

// AddArcs inserts every arc.
func (s *ArcSet) AddArcs(arcs ...Arc) {
	for _, arc := range arcs {
		s.AddArc(arc)
	}
}

// RemoveArc deletes arc if present.
func (s *ArcSet) RemoveArc(arc Arc) {
	dests, ok := s.arcs[arc.from]
	if !ok {
		return
	}
	dests.Remove(arc.to)
	if dests.Empty() {
		delete(s.arcs, arc.from)
	}
}

// RemoveArcs deletes every arc that is present.
func (s *ArcSet) RemoveArcs(arcs ...Arc) {
	for _, arc := range arcs {
		s.RemoveArc(arc)
	}
}

// Exists reports whether arc is in the set.
func (s *ArcSet) Exists(arc Arc) bool {
	if s == nil {
		return false
	}
	return s.arcs[arc.from].Contains(arc.to)
}

// Successors returns the destinations of arcs leaving node, unordered.
func (s *ArcSet) Successors(node NodeID) []NodeID {
	if s == nil {
		return nil
	}
	return s.arcs[node].Values()
}

// Origins returns every node with at least one outgoing arc, unordered.
func (s *ArcSet) Origins() []NodeID {
	if s == nil {
		return nil
	}
	origins := make([]NodeID, 0, len(s.arcs))
	for from := range s.arcs {
		origins = append(origins, from)
	}
	return origins
}

// Arcs materializes the full arc list in no particular order.
func (s *ArcSet) Arcs() []Arc {
	if s == nil {
		return nil
	}
	arcs := make([]Arc, 0, s.Len())
	for from, dests := range s.arcs {
		for _, to := range dests.Values() {
			arcs = append(arcs, Arc{from: from, to: to})
		}
	}
	return arcs
}

// Len returns the number of arcs.
func (s *ArcSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, dests := range s.arcs {
		n += dests.Count()
	}
	return n
}

// Equals reports whether both sets hold exactly the same arcs.
func (s *ArcSet) Equals(other *ArcSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, arc := range s.Arcs() {
		if !other.Exists(arc) {
			return false
		}
	}
	return true
}

// SortArcs orders arcs by origin, then destination.
func SortArcs(arcs []Arc) {
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].from != arcs[j].from {
			return arcs[i].from < arcs[j].from
		}
		return arcs[i].to < arcs[j].to
	})
}
