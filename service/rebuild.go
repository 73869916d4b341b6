package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgijax/wts/closure"
)

// Rebuild recomputes the whole closure of each given relationship type,
// or of every configured type when none are given. Types are rebuilt
// concurrently up to the configured limit. Stats come back in input order.
func (s *DependencyService) Rebuild(ctx context.Context, trigger string, types ...closure.RelationshipType) ([]*closure.RebuildStats, error) {
	if len(types) == 0 {
		types = s.RelationshipTypes()
	}

	stats := make([]*closure.RebuildStats, len(types))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.RebuildConcurrency)

	for i, relType := range types {
		g.Go(func() error {
			st, err := s.rebuildOne(ctx, trigger, relType)
			if err != nil {
				return err
			}
			stats[i] = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DependencyService) rebuildOne(ctx context.Context, trigger string, relType closure.RelationshipType) (*closure.RebuildStats, error) {
	l := s.lockFor(relType)
	l.Lock()
	defer l.Unlock()

	st, err := s.rebuilder.Rebuild(ctx, relType)
	if err != nil {
		s.logger.Error("Closure rebuild failed",
			zap.Error(err),
			zap.String("trigger", trigger),
			zap.Int("relationship_type", int(relType)))
		return nil, err
	}
	rebuildDuration.WithLabelValues(trigger).Observe(st.Elapsed.Seconds())
	closureArcsChanged.WithLabelValues("added").Add(float64(st.Added))
	closureArcsChanged.WithLabelValues("deleted").Add(float64(st.Deleted))

	// A rebuild may touch any node of the type.
	s.cache.Purge()

	if err := s.relationships.TouchMetadata(ctx, relType, st.Added, st.Deleted); err != nil {
		s.logger.Warn("Failed to record rebuild metadata", zap.Error(err), zap.Int("relationship_type", int(relType)))
	}
	return st, nil
}

// StartAudit rebuilds every configured relationship type once per interval
// until ctx is done. Any rows a rebuild has to change are logged as drift.
func (s *DependencyService) StartAudit(ctx context.Context, interval time.Duration) {
	s.logger.Info("Closure audit enabled", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.audit(ctx)
		case <-ctx.Done():
			s.logger.Info("Closure audit stopped")
			return
		}
	}
}

func (s *DependencyService) audit(ctx context.Context) {
	stats, err := s.Rebuild(ctx, "audit")
	if err != nil {
		s.logger.Error("Closure audit failed", zap.Error(err))
		return
	}
	for _, st := range stats {
		if st.Added > 0 || st.Deleted > 0 {
			s.logger.Warn("Closure audit repaired drift",
				zap.Int("relationship_type", int(st.RelationshipType)),
				zap.Int("added", st.Added),
				zap.Int("deleted", st.Deleted))
			continue
		}
		s.logger.Debug("Closure audit found no drift",
			zap.Int("relationship_type", int(st.RelationshipType)),
			zap.Int("components", st.Components),
			zap.Duration("elapsed", st.Elapsed))
	}
}
