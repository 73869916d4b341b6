package closure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/set"
)

// Changes is what one Sync wrote to the store.
type Changes struct {
	Added     *digraph.ArcSet
	Deleted   *digraph.ArcSet
	Component *set.Set[digraph.NodeID]
}

// Syncer recomputes and persists the closure of one connected component.
// A Syncer holds no per-run state and may be shared; runs over the same
// component must not overlap.
type Syncer struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

// NewSyncer creates a Syncer over store.
func NewSyncer(store Store, cfg Config, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{store: store, cfg: cfg, logger: logger}
}

// Sync brings the persisted closure of relType up to date for the component
// containing origin. Call it after committing a direct-arc change touching
// origin. On error the store may be partly updated; retry by calling Sync
// again from the start.
func (s *Syncer) Sync(ctx context.Context, origin digraph.NodeID, relType RelationshipType) (*Changes, error) {
	start := time.Now()
	logger := s.logger.With(
		zap.String("run", uuid.New().String()),
		zap.Int64("origin", origin),
		zap.Int("relationship_type", int(relType)))

	component, direct, err := s.discover(ctx, origin, relType)
	if err != nil {
		return nil, err
	}

	old, err := s.loadClosure(ctx, component, relType)
	if err != nil {
		return nil, err
	}

	g := digraph.New(direct.Arcs()...)
	g.AddNodes(component.Values()...)
	fresh := g.TransitiveClosure()

	changes := diff(old, fresh)
	changes.Component = component

	toAdd := changes.Added.Arcs()
	toDelete := changes.Deleted.Arcs()
	if len(toAdd) > 0 || len(toDelete) > 0 {
		if err := s.store.ApplyClosure(ctx, relType, toAdd, toDelete); err != nil {
			return nil, err
		}
	}

	logger.Debug("Closure synced",
		zap.Int("component_nodes", component.Count()),
		zap.Int("direct_arcs", direct.Len()),
		zap.Int("added", len(toAdd)),
		zap.Int("deleted", len(toDelete)),
		zap.Duration("elapsed", time.Since(start)))

	return changes, nil
}

// discover walks direct arcs in both directions from origin until no new
// nodes turn up. It returns the component's nodes and the arcs among them.
func (s *Syncer) discover(ctx context.Context, origin digraph.NodeID, relType RelationshipType) (*set.Set[digraph.NodeID], *digraph.ArcSet, error) {
	done := set.New[digraph.NodeID]()
	frontier := set.New(origin)
	arcs := digraph.NewArcSet()

	for !frontier.Empty() {
		found, err := s.fetch(ctx, frontier.Values(), relType, s.store.DirectArcs)
		if err != nil {
			return nil, nil, err
		}
		done = done.Union(frontier)
		frontier = set.New[digraph.NodeID]()

		for _, arc := range found {
			arcs.AddArc(arc)
			if !done.Contains(arc.From()) {
				frontier.Add(arc.From())
			}
			if !done.Contains(arc.To()) {
				frontier.Add(arc.To())
			}
		}
	}
	return done, arcs, nil
}

// loadClosure reads the persisted closure arcs touching any node in component.
// Arcs leading out of the component are included so stale ones get deleted.
func (s *Syncer) loadClosure(ctx context.Context, component *set.Set[digraph.NodeID], relType RelationshipType) (*digraph.ArcSet, error) {
	found, err := s.fetch(ctx, component.Values(), relType, s.store.ClosureArcs)
	if err != nil {
		return nil, err
	}
	return digraph.NewArcSet(found...), nil
}

type arcLookup func(ctx context.Context, relType RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error)

func (s *Syncer) fetch(ctx context.Context, nodes []digraph.NodeID, relType RelationshipType, lookup arcLookup) ([]digraph.Arc, error) {
	var all []digraph.Arc
	for _, chunk := range chunks(nodes, s.cfg.batchSize()) {
		arcs, err := lookup(ctx, relType, chunk)
		if err != nil {
			return nil, err
		}
		all = append(all, arcs...)
	}
	return all, nil
}

// diff compares the stored closure with the recomputed one. Self-arcs are
// never scheduled for deletion, even for a node left with no arcs.
func diff(old, fresh *digraph.ArcSet) *Changes {
	changes := &Changes{
		Added:   digraph.NewArcSet(),
		Deleted: digraph.NewArcSet(),
	}
	for _, arc := range old.Arcs() {
		if !fresh.Exists(arc) && !arc.IsSelf() {
			changes.Deleted.AddArc(arc)
		}
	}
	for _, arc := range fresh.Arcs() {
		if !old.Exists(arc) {
			changes.Added.AddArc(arc)
		}
	}
	return changes
}
