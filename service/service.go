// Package service coordinates dependency edits with closure maintenance:
// cycle checks run before a write, and every write is followed by a sync of
// the affected component.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	apperrors "github.com/mgijax/wts/errors"
	"github.com/mgijax/wts/graph"
)

// RelationshipStore holds direct and closure rows for every relationship type.
type RelationshipStore interface {
	closure.Store
	closure.NodeLister
	closure.ChildLister
	DependsOn(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error)
	DependedOnBy(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error)
	ReplaceDirectArcs(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID, add, remove []digraph.NodeID) error
	TouchMetadata(ctx context.Context, relType closure.RelationshipType, added, deleted int) error
	GetMetadata(ctx context.Context, relType closure.RelationshipType) (*graph.SyncMetadata, error)
}

// RecordStore resolves tracking records.
type RecordStore interface {
	CreateRecord(ctx context.Context, title string) (int64, error)
	MissingRecords(ctx context.Context, ids []int64) ([]int64, error)
	RecordTitles(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Options tunes a DependencyService.
type Options struct {
	BatchSize          int
	CacheSize          int
	RebuildConcurrency int
	RelationshipTypes  []closure.RelationshipType
}

// CycleError reports a dependency update refused by the cycle guard.
type CycleError struct {
	Origin     digraph.NodeID
	Violations []closure.Violation
}

func (e *CycleError) Error() string {
	targets := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		targets[i] = fmt.Sprintf("%d", v.Target)
	}
	return fmt.Sprintf("record %d cannot depend on %s: they already depend on it", e.Origin, strings.Join(targets, ", "))
}

func (e *CycleError) Unwrap() error {
	return apperrors.ErrCycle
}

type queryKey struct {
	relType    closure.RelationshipType
	node       digraph.NodeID
	dependents bool
}

// DependencyService is the entry point for reading and editing dependencies.
// Mutations of one relationship type are serialized; different types proceed
// independently.
type DependencyService struct {
	relationships RelationshipStore
	records       RecordStore
	syncer        *closure.Syncer
	guard         *closure.Guard
	rebuilder     *closure.Rebuilder
	cache         *lru.Cache
	opts          Options
	logger        *zap.Logger

	mu    sync.Mutex
	locks map[closure.RelationshipType]*sync.RWMutex
}

// NewDependencyService wires the closure engine to the given stores.
func NewDependencyService(relationships RelationshipStore, records RecordStore, opts Options, logger *zap.Logger) (*DependencyService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 1024
	}
	if opts.RebuildConcurrency < 1 {
		opts.RebuildConcurrency = 1
	}

	cache, err := lru.New(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	cfg := closure.Config{BatchSize: opts.BatchSize}
	syncer := closure.NewSyncer(relationships, cfg, logger.Named("sync"))

	return &DependencyService{
		relationships: relationships,
		records:       records,
		syncer:        syncer,
		guard:         closure.NewGuard(relationships, cfg, logger.Named("guard")),
		rebuilder:     closure.NewRebuilder(syncer, relationships, logger.Named("rebuild")),
		cache:         cache,
		opts:          opts,
		logger:        logger,
		locks:         make(map[closure.RelationshipType]*sync.RWMutex),
	}, nil
}

func (s *DependencyService) lockFor(relType closure.RelationshipType) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[relType]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[relType] = l
	}
	return l
}

// CreateRecord adds a tracking record and returns its id.
func (s *DependencyService) CreateRecord(ctx context.Context, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, apperrors.WrapError(apperrors.ErrInvalidInput, "title is required")
	}
	return s.records.CreateRecord(ctx, title)
}

// Dependencies lists what node depends on, directly or transitively.
func (s *DependencyService) Dependencies(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID, transitive bool) ([]digraph.NodeID, error) {
	l := s.lockFor(relType)
	l.RLock()
	defer l.RUnlock()

	if !transitive {
		return s.relationships.Children(ctx, relType, node)
	}
	return s.cached(queryKey{relType: relType, node: node}, func() ([]digraph.NodeID, error) {
		return s.relationships.DependsOn(ctx, relType, node)
	})
}

// Dependents lists every record that transitively depends on node.
func (s *DependencyService) Dependents(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	l := s.lockFor(relType)
	l.RLock()
	defer l.RUnlock()

	return s.cached(queryKey{relType: relType, node: node, dependents: true}, func() ([]digraph.NodeID, error) {
		return s.relationships.DependedOnBy(ctx, relType, node)
	})
}

func (s *DependencyService) cached(key queryKey, load func() ([]digraph.NodeID, error)) ([]digraph.NodeID, error) {
	if v, ok := s.cache.Get(key); ok {
		queryCacheTotal.WithLabelValues("hit").Inc()
		return append([]digraph.NodeID(nil), v.([]digraph.NodeID)...), nil
	}
	queryCacheTotal.WithLabelValues("miss").Inc()

	nodes, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, nodes)
	return append([]digraph.NodeID(nil), nodes...), nil
}

// invalidate drops cached answers for every endpoint of a changed arc.
func (s *DependencyService) invalidate(relType closure.RelationshipType, changes *closure.Changes) {
	for _, arcs := range []*digraph.ArcSet{changes.Added, changes.Deleted} {
		for _, arc := range arcs.Arcs() {
			for _, n := range []digraph.NodeID{arc.From(), arc.To()} {
				s.cache.Remove(queryKey{relType: relType, node: n})
				s.cache.Remove(queryKey{relType: relType, node: n, dependents: true})
			}
		}
	}
}

// Tree renders node's dependency tree, one line per entry.
func (s *DependencyService) Tree(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID, showTitles bool) ([]string, error) {
	l := s.lockFor(relType)
	l.RLock()
	defer l.RUnlock()

	tree, err := closure.SubTree(ctx, s.relationships, relType, node)
	if err != nil {
		return nil, err
	}

	var titles map[digraph.NodeID]string
	if showTitles {
		titles, err = s.records.RecordTitles(ctx, tree.Nodes())
		if err != nil {
			return nil, err
		}
	}
	return closure.RenderTree(tree, titles, showTitles), nil
}

// CheckDependencies reports which targets origin could not depend on
// without creating a cycle.
func (s *DependencyService) CheckDependencies(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID, targets []digraph.NodeID) ([]closure.Violation, error) {
	l := s.lockFor(relType)
	l.RLock()
	defer l.RUnlock()

	return s.guard.IsSafeToAdd(ctx, relType, origin, newNodeSet(targets))
}

// Metadata returns the bookkeeping row of the last sync of relType.
func (s *DependencyService) Metadata(ctx context.Context, relType closure.RelationshipType) (*graph.SyncMetadata, error) {
	return s.relationships.GetMetadata(ctx, relType)
}

// RelationshipTypes returns the configured relationship types in order.
func (s *DependencyService) RelationshipTypes() []closure.RelationshipType {
	types := append([]closure.RelationshipType(nil), s.opts.RelationshipTypes...)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
