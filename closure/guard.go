package closure

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/set"
)

// Violation is a proposed arc Origin -> Target that would close a cycle
// because Target already reaches Origin.
type Violation struct {
	Origin digraph.NodeID
	Target digraph.NodeID
}

func (v Violation) String() string {
	return fmt.Sprintf("%d->%d", v.Origin, v.Target)
}

// Guard checks proposed arcs against the persisted closure.
// Its answers are only as current as the last completed Sync.
type Guard struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

// NewGuard creates a Guard over store.
func NewGuard(store Store, cfg Config, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{store: store, cfg: cfg, logger: logger}
}

// IsSafeToAdd reports every target for which adding origin -> target would
// create a cycle. An empty result means all arcs may be added; otherwise
// none of them should be.
func (g *Guard) IsSafeToAdd(ctx context.Context, relType RelationshipType, origin digraph.NodeID, targets *set.Set[digraph.NodeID]) ([]Violation, error) {
	ids := targets.Values()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var violations []Violation
	for _, chunk := range chunks(ids, g.cfg.batchSize()) {
		back, err := g.store.ClosureArcsInto(ctx, relType, origin, chunk)
		if err != nil {
			return nil, err
		}
		for _, arc := range back {
			violations = append(violations, Violation{Origin: origin, Target: arc.From()})
		}
	}

	sort.Slice(violations, func(i, j int) bool { return violations[i].Target < violations[j].Target })

	if len(violations) > 0 {
		g.logger.Debug("Rejected cycle-forming arcs",
			zap.Int64("origin", origin),
			zap.Int("relationship_type", int(relType)),
			zap.Int("violations", len(violations)))
	}
	return violations, nil
}
