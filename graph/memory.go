package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	apperrors "github.com/mgijax/wts/errors"
	"github.com/mgijax/wts/set"
)

// Memory is an in-process relationship store with the same behavior as
// Graph. It backs `serve --memory` and tests. State is lost on exit.
// Its methods mirror the Graph methods of the same name.
type Memory struct {
	mu       sync.RWMutex
	direct   map[closure.RelationshipType]*digraph.ArcSet
	closure  map[closure.RelationshipType]*digraph.ArcSet
	metadata map[closure.RelationshipType]SyncMetadata
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		direct:   make(map[closure.RelationshipType]*digraph.ArcSet),
		closure:  make(map[closure.RelationshipType]*digraph.ArcSet),
		metadata: make(map[closure.RelationshipType]SyncMetadata),
	}
}

// rows returns the arc set for relType, creating it when create is set.
// Callers hold m.mu.
func rows(m map[closure.RelationshipType]*digraph.ArcSet, relType closure.RelationshipType, create bool) *digraph.ArcSet {
	s, ok := m[relType]
	if !ok && create {
		s = digraph.NewArcSet()
		m[relType] = s
	}
	return s
}

func touching(s *digraph.ArcSet, nodes []digraph.NodeID) []digraph.Arc {
	want := set.New(nodes...)
	var out []digraph.Arc
	for _, arc := range s.Arcs() {
		if want.Contains(arc.From()) || want.Contains(arc.To()) {
			out = append(out, arc)
		}
	}
	return out
}

// DirectArcs returns the direct arcs of relType touching any of nodes.
func (m *Memory) DirectArcs(_ context.Context, relType closure.RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return touching(rows(m.direct, relType, false), nodes), nil
}

// ClosureArcs returns the stored closure arcs of relType touching any of nodes.
func (m *Memory) ClosureArcs(_ context.Context, relType closure.RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return touching(rows(m.closure, relType, false), nodes), nil
}

// ClosureArcsInto returns the closure arcs from any of froms into to.
func (m *Memory) ClosureArcsInto(_ context.Context, relType closure.RelationshipType, to digraph.NodeID, froms []digraph.NodeID) ([]digraph.Arc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := rows(m.closure, relType, false)
	var out []digraph.Arc
	for _, from := range froms {
		if arc := digraph.NewArc(from, to); s.Exists(arc) {
			out = append(out, arc)
		}
	}
	return out, nil
}

// ApplyClosure adds toAdd and removes toDelete from the stored closure.
func (m *Memory) ApplyClosure(_ context.Context, relType closure.RelationshipType, toAdd, toDelete []digraph.Arc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := rows(m.closure, relType, true)
	s.AddArcs(toAdd...)
	s.RemoveArcs(toDelete...)
	return nil
}

// Nodes lists every record on a direct or closure arc of relType, ascending.
func (m *Memory) Nodes(_ context.Context, relType closure.RelationshipType) ([]digraph.NodeID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nodes := set.New[digraph.NodeID]()
	for _, s := range []*digraph.ArcSet{rows(m.direct, relType, false), rows(m.closure, relType, false)} {
		for _, arc := range s.Arcs() {
			nodes.Add(arc.From(), arc.To())
		}
	}
	return sortedNodes(nodes.Values()), nil
}

// Children lists the direct successors of node, ascending.
func (m *Memory) Children(_ context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedNodes(rows(m.direct, relType, false).Successors(node)), nil
}

// DependsOn lists every record node reaches through the closure, excluding itself.
func (m *Memory) DependsOn(_ context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []digraph.NodeID
	for _, to := range rows(m.closure, relType, false).Successors(node) {
		if to != node {
			out = append(out, to)
		}
	}
	return sortedNodes(out), nil
}

// DependedOnBy lists every record that reaches node through the closure, excluding itself.
func (m *Memory) DependedOnBy(_ context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []digraph.NodeID
	for _, arc := range rows(m.closure, relType, false).Arcs() {
		if arc.To() == node && !arc.IsSelf() {
			out = append(out, arc.From())
		}
	}
	return sortedNodes(out), nil
}

// ReplaceDirectArcs adds and removes direct arcs out of origin.
func (m *Memory) ReplaceDirectArcs(_ context.Context, relType closure.RelationshipType, origin digraph.NodeID, add, remove []digraph.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := rows(m.direct, relType, true)
	for _, to := range remove {
		s.RemoveArc(digraph.NewArc(origin, to))
	}
	for _, to := range add {
		s.AddArc(digraph.NewArc(origin, to))
	}
	return nil
}

// TouchMetadata records a sync that added and deleted the given arc counts.
func (m *Memory) TouchMetadata(_ context.Context, relType closure.RelationshipType, added, deleted int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metadata[relType] = SyncMetadata{
		RelationshipType: relType,
		LastSyncAt:       time.Now(),
		Status:           "synced",
		LastAdded:        added,
		LastDeleted:      deleted,
	}
	return nil
}

// GetMetadata returns the last sync metadata for relType, or ErrNotFound.
func (m *Memory) GetMetadata(_ context.Context, relType closure.RelationshipType) (*SyncMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.metadata[relType]
	if !ok {
		return nil, apperrors.WrapErrorf(apperrors.ErrNotFound, "no sync recorded for relationship type %d", relType)
	}
	return &meta, nil
}

func sortedNodes(nodes []digraph.NodeID) []digraph.NodeID {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
