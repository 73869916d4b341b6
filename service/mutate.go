package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	apperrors "github.com/mgijax/wts/errors"
	"github.com/mgijax/wts/set"
)

type nodeSet = set.Set[digraph.NodeID]

func newNodeSet(ids []digraph.NodeID) *nodeSet {
	return set.New(ids...)
}

func sortedValues(s *nodeSet) []digraph.NodeID {
	ids := s.Values()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// plan turns origin's current direct dependencies into the ids to add and remove.
type plan func(current *nodeSet) (add, remove *nodeSet, err error)

// SetDependencies replaces origin's direct dependencies with targets.
func (s *DependencyService) SetDependencies(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID, targets []digraph.NodeID) (*closure.Changes, error) {
	wanted := newNodeSet(targets)
	if err := s.validateTargets(ctx, origin, wanted); err != nil {
		return nil, err
	}
	return s.mutate(ctx, relType, origin, func(current *nodeSet) (*nodeSet, *nodeSet, error) {
		return wanted.Difference(current), current.Difference(wanted), nil
	})
}

// AddDependency makes origin depend directly on target.
func (s *DependencyService) AddDependency(ctx context.Context, relType closure.RelationshipType, origin, target digraph.NodeID) (*closure.Changes, error) {
	wanted := set.New(target)
	if err := s.validateTargets(ctx, origin, wanted); err != nil {
		return nil, err
	}
	return s.mutate(ctx, relType, origin, func(current *nodeSet) (*nodeSet, *nodeSet, error) {
		return wanted.Difference(current), set.New[digraph.NodeID](), nil
	})
}

// RemoveDependency drops the direct dependency origin -> target.
func (s *DependencyService) RemoveDependency(ctx context.Context, relType closure.RelationshipType, origin, target digraph.NodeID) (*closure.Changes, error) {
	return s.mutate(ctx, relType, origin, func(current *nodeSet) (*nodeSet, *nodeSet, error) {
		if !current.Contains(target) {
			return nil, nil, apperrors.WrapErrorf(apperrors.ErrNotFound, "record %d does not depend on %d", origin, target)
		}
		return set.New[digraph.NodeID](), set.New(target), nil
	})
}

// SyncRecord recomputes the closure of the component containing node
// without changing any direct dependency.
func (s *DependencyService) SyncRecord(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) (*closure.Changes, error) {
	l := s.lockFor(relType)
	l.Lock()
	defer l.Unlock()

	return s.sync(ctx, relType, node)
}

func (s *DependencyService) validateTargets(ctx context.Context, origin digraph.NodeID, targets *nodeSet) error {
	if targets.Contains(origin) {
		return apperrors.WrapErrorf(apperrors.ErrInvalidInput, "record %d cannot depend on itself", origin)
	}

	ids := append(sortedValues(targets), origin)
	missing, err := s.records.MissingRecords(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.WrapErrorf(apperrors.ErrNotFound, "unknown records: %v", missing)
	}
	return nil
}

// mutate runs guard, write and sync for origin under the relationship type's
// write lock. The guard sees the closure as of the last completed sync.
func (s *DependencyService) mutate(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID, p plan) (*closure.Changes, error) {
	l := s.lockFor(relType)
	l.Lock()
	defer l.Unlock()

	children, err := s.relationships.Children(ctx, relType, origin)
	if err != nil {
		return nil, err
	}
	add, remove, err := p(newNodeSet(children))
	if err != nil {
		return nil, err
	}

	if add.Empty() && remove.Empty() {
		return &closure.Changes{
			Added:     digraph.NewArcSet(),
			Deleted:   digraph.NewArcSet(),
			Component: set.New(origin),
		}, nil
	}

	if !add.Empty() {
		violations, err := s.guard.IsSafeToAdd(ctx, relType, origin, add)
		if err != nil {
			return nil, err
		}
		if len(violations) > 0 {
			cycleRejections.Inc()
			s.logger.Info("Refused dependency update that would create a cycle",
				zap.Int64("origin", origin),
				zap.Int("relationship_type", int(relType)),
				zap.Stringers("violations", violations))
			return nil, &CycleError{Origin: origin, Violations: violations}
		}
	}

	if err := s.relationships.ReplaceDirectArcs(ctx, relType, origin, sortedValues(add), sortedValues(remove)); err != nil {
		return nil, err
	}

	return s.sync(ctx, relType, origin)
}

// sync must be called with the relationship type's write lock held.
func (s *DependencyService) sync(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID) (*closure.Changes, error) {
	start := time.Now()
	changes, err := s.syncer.Sync(ctx, origin, relType)
	closureSyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		closureSyncTotal.WithLabelValues("error").Inc()
		s.logger.Error("Closure sync failed",
			zap.Error(err),
			zap.Int64("origin", origin),
			zap.Int("relationship_type", int(relType)))
		return nil, err
	}
	closureSyncTotal.WithLabelValues("ok").Inc()
	closureArcsChanged.WithLabelValues("added").Add(float64(changes.Added.Len()))
	closureArcsChanged.WithLabelValues("deleted").Add(float64(changes.Deleted.Len()))
	componentSize.Observe(float64(changes.Component.Count()))

	s.invalidate(relType, changes)

	if err := s.relationships.TouchMetadata(ctx, relType, changes.Added.Len(), changes.Deleted.Len()); err != nil {
		s.logger.Warn("Failed to record sync metadata", zap.Error(err), zap.Int("relationship_type", int(relType)))
	}
	return changes, nil
}
