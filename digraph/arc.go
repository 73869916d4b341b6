// Package digraph holds the in-memory graph types used to compute the
// transitive closure of a relationship among tracking records. All values
// here are request-scoped: build them for one operation and drop them.
package digraph

import "fmt"

// NodeID identifies a node, typically a tracking record key.
type NodeID = int64

// Arc is a directed edge between two nodes. Self-arcs are allowed.
// Arcs are comparable and can be used as map keys.
type Arc struct {
	from NodeID
	to   NodeID
}

// NewArc returns the arc from -> to.
func NewArc(from, to NodeID) Arc {
	return Arc{from: from, to: to}
}

// From returns the arc's origin.
func (a Arc) From() NodeID { return a.from }

// To returns the arc's destination.
func (a Arc) To() NodeID { return a.to }

// IsSelf reports whether the arc starts and ends at the same node.
func (a Arc) IsSelf() bool { return a.from == a.to }

func (a Arc) String() string {
	return fmt.Sprintf("%d->%d", a.from, a.to)
}
