package closure

import (
	"context"
	"errors"

	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/set"
)

// fakeStore keeps direct and closure rows per relationship type and records
// the size of every id list it is handed.
type fakeStore struct {
	direct  map[RelationshipType]*digraph.ArcSet
	closure map[RelationshipType]*digraph.ArcSet

	lookupSizes []int
	applyCalls  int
	failApply   error
	failLookup  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		direct:  make(map[RelationshipType]*digraph.ArcSet),
		closure: make(map[RelationshipType]*digraph.ArcSet),
	}
}

func (f *fakeStore) rows(m map[RelationshipType]*digraph.ArcSet, relType RelationshipType) *digraph.ArcSet {
	s, ok := m[relType]
	if !ok {
		s = digraph.NewArcSet()
		m[relType] = s
	}
	return s
}

func (f *fakeStore) touching(rows *digraph.ArcSet, nodes []digraph.NodeID) []digraph.Arc {
	want := set.New(nodes...)
	var out []digraph.Arc
	for _, arc := range rows.Arcs() {
		if want.Contains(arc.From()) || want.Contains(arc.To()) {
			out = append(out, arc)
		}
	}
	return out
}

func (f *fakeStore) DirectArcs(_ context.Context, relType RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	f.lookupSizes = append(f.lookupSizes, len(nodes))
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	return f.touching(f.rows(f.direct, relType), nodes), nil
}

func (f *fakeStore) ClosureArcs(_ context.Context, relType RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	f.lookupSizes = append(f.lookupSizes, len(nodes))
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	return f.touching(f.rows(f.closure, relType), nodes), nil
}

func (f *fakeStore) ClosureArcsInto(_ context.Context, relType RelationshipType, to digraph.NodeID, froms []digraph.NodeID) ([]digraph.Arc, error) {
	f.lookupSizes = append(f.lookupSizes, len(froms))
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	rows := f.rows(f.closure, relType)
	var out []digraph.Arc
	for _, from := range froms {
		if arc := digraph.NewArc(from, to); rows.Exists(arc) {
			out = append(out, arc)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyClosure(_ context.Context, relType RelationshipType, toAdd, toDelete []digraph.Arc) error {
	f.applyCalls++
	if f.failApply != nil {
		return f.failApply
	}
	rows := f.rows(f.closure, relType)
	rows.AddArcs(toAdd...)
	rows.RemoveArcs(toDelete...)
	return nil
}

func (f *fakeStore) Nodes(_ context.Context, relType RelationshipType) ([]digraph.NodeID, error) {
	nodes := set.New[digraph.NodeID]()
	for _, rows := range []*digraph.ArcSet{f.rows(f.direct, relType), f.rows(f.closure, relType)} {
		for _, arc := range rows.Arcs() {
			nodes.Add(arc.From(), arc.To())
		}
	}
	return nodes.Values(), nil
}

func (f *fakeStore) Children(_ context.Context, relType RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	return f.rows(f.direct, relType).Successors(node), nil
}

var errStoreDown = errors.New("connection refused")
