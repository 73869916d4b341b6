// Package closure keeps the persisted transitive closure of a relationship
// among tracking records in step with its direct arcs.
//
// After a direct arc of some relationship type changes, Syncer.Sync
// recomputes the closure of the connected component around the changed
// node and writes only the difference. Guard.IsSafeToAdd uses the persisted
// closure to reject arcs that would close a cycle. Both depend on the caller
// serializing mutations of a component and running Sync after every
// accepted change before the next Guard check.
package closure

import (
	"context"

	"github.com/mgijax/wts/digraph"
)

// RelationshipType tags an independent graph over the shared node space.
type RelationshipType int

// DefaultBatchSize bounds how many node ids go into one store query.
const DefaultBatchSize = 100

// Config carries the settings closure maintenance needs.
type Config struct {
	// BatchSize is the maximum number of ids passed to a single store
	// lookup. Values below 1 mean DefaultBatchSize.
	BatchSize int
}

func (c Config) batchSize() int {
	if c.BatchSize < 1 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// Store is the relationship store as seen by closure maintenance.
// Every id list passed in holds at most Config.BatchSize entries.
// Errors are store communication failures and are returned unchanged.
type Store interface {
	// DirectArcs returns direct arcs of relType with either endpoint in nodes.
	DirectArcs(ctx context.Context, relType RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error)

	// ClosureArcs returns closure arcs of relType with either endpoint in nodes.
	ClosureArcs(ctx context.Context, relType RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error)

	// ClosureArcsInto returns closure arcs of relType from any of froms to to.
	ClosureArcsInto(ctx context.Context, relType RelationshipType, to digraph.NodeID, froms []digraph.NodeID) ([]digraph.Arc, error)

	// ApplyClosure inserts toAdd and deletes toDelete from the closure
	// rows of relType as one batch.
	ApplyClosure(ctx context.Context, relType RelationshipType, toAdd, toDelete []digraph.Arc) error
}

// NodeLister enumerates every node that has a direct or closure row of
// relType. Used by full rebuilds.
type NodeLister interface {
	Nodes(ctx context.Context, relType RelationshipType) ([]digraph.NodeID, error)
}

// ChildLister returns the direct successors of node.
type ChildLister interface {
	Children(ctx context.Context, relType RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error)
}

// chunks splits ids into consecutive slices of at most n entries.
func chunks(ids []digraph.NodeID, n int) [][]digraph.NodeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([][]digraph.NodeID, 0, (len(ids)+n-1)/n)
	for len(ids) > n {
		out = append(out, ids[:n:n])
		ids = ids[n:]
	}
	return append(out, ids)
}
