package graph

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	apperrors "github.com/mgijax/wts/errors"
)

// DirectArcs returns direct arcs of relType with either endpoint in nodes.
func (g *Graph) DirectArcs(ctx context.Context, relType closure.RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	return g.arcsTouching(ctx, relType, false, nodes)
}

// ClosureArcs returns closure arcs of relType with either endpoint in nodes.
func (g *Graph) ClosureArcs(ctx context.Context, relType closure.RelationshipType, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	return g.arcsTouching(ctx, relType, true, nodes)
}

func (g *Graph) arcsTouching(ctx context.Context, relType closure.RelationshipType, transitive bool, nodes []digraph.NodeID) ([]digraph.Arc, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	query := `
		SELECT tr_key, related_tr_key
		FROM relationships
		WHERE relationship_type = $1
			AND transitive_closure = $2
			AND (tr_key = ANY($3) OR related_tr_key = ANY($3))
	`

	rows, err := g.db.QueryContext(ctx, query, int(relType), transitive, pq.Array(nodes))
	if err != nil {
		return nil, apperrors.StoreError("failed to query arcs", err)
	}
	return scanArcs(rows)
}

// ClosureArcsInto returns closure arcs of relType leading from any of froms to to.
func (g *Graph) ClosureArcsInto(ctx context.Context, relType closure.RelationshipType, to digraph.NodeID, froms []digraph.NodeID) ([]digraph.Arc, error) {
	if len(froms) == 0 {
		return nil, nil
	}

	query := `
		SELECT tr_key, related_tr_key
		FROM relationships
		WHERE relationship_type = $1
			AND transitive_closure = TRUE
			AND related_tr_key = $2
			AND tr_key = ANY($3)
	`

	rows, err := g.db.QueryContext(ctx, query, int(relType), to, pq.Array(froms))
	if err != nil {
		return nil, apperrors.StoreError("failed to query closure arcs", err)
	}
	return scanArcs(rows)
}

// ApplyClosure inserts toAdd and deletes toDelete from the closure rows of
// relType in a single transaction.
func (g *Graph) ApplyClosure(ctx context.Context, relType closure.RelationshipType, toAdd, toDelete []digraph.Arc) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreError("failed to begin closure batch", err)
	}
	defer tx.Rollback()

	if len(toAdd) > 0 {
		froms, tos := splitArcs(toAdd)
		query := `
			INSERT INTO relationships (tr_key, related_tr_key, relationship_type, transitive_closure)
			SELECT f, t, $3::INTEGER, TRUE
			FROM unnest($1::BIGINT[], $2::BIGINT[]) AS a(f, t)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, pq.Array(froms), pq.Array(tos), int(relType)); err != nil {
			return apperrors.StoreError("failed to insert closure arcs", err)
		}
	}

	if len(toDelete) > 0 {
		froms, tos := splitArcs(toDelete)
		query := `
			DELETE FROM relationships r
			USING unnest($1::BIGINT[], $2::BIGINT[]) AS a(f, t)
			WHERE r.tr_key = a.f
				AND r.related_tr_key = a.t
				AND r.relationship_type = $3
				AND r.transitive_closure = TRUE
		`
		if _, err := tx.ExecContext(ctx, query, pq.Array(froms), pq.Array(tos), int(relType)); err != nil {
			return apperrors.StoreError("failed to delete closure arcs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StoreError("failed to commit closure batch", err)
	}

	g.logger.Debug("Applied closure batch",
		zap.Int("relationship_type", int(relType)),
		zap.Int("inserted", len(toAdd)),
		zap.Int("deleted", len(toDelete)))

	return nil
}

// Nodes returns every node appearing in a direct or closure row of relType.
func (g *Graph) Nodes(ctx context.Context, relType closure.RelationshipType) ([]digraph.NodeID, error) {
	query := `
		SELECT tr_key FROM relationships WHERE relationship_type = $1
		UNION
		SELECT related_tr_key FROM relationships WHERE relationship_type = $1
		ORDER BY 1
	`
	rows, err := g.db.QueryContext(ctx, query, int(relType))
	if err != nil {
		return nil, apperrors.StoreError("failed to list relationship nodes", err)
	}
	return scanNodes(rows)
}

// Children returns the direct successors of node, ascending.
func (g *Graph) Children(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	query := `
		SELECT related_tr_key
		FROM relationships
		WHERE tr_key = $1 AND relationship_type = $2 AND transitive_closure = FALSE
		ORDER BY related_tr_key
	`
	rows, err := g.db.QueryContext(ctx, query, node, int(relType))
	if err != nil {
		return nil, apperrors.StoreError("failed to query direct successors", err)
	}
	return scanNodes(rows)
}

// DependsOn returns every node that node reaches through the closure of
// relType, excluding node itself, ascending.
func (g *Graph) DependsOn(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	query := `
		SELECT related_tr_key
		FROM relationships
		WHERE tr_key = $1 AND related_tr_key <> $1
			AND relationship_type = $2 AND transitive_closure = TRUE
		ORDER BY related_tr_key
	`
	rows, err := g.db.QueryContext(ctx, query, node, int(relType))
	if err != nil {
		return nil, apperrors.StoreError("failed to query closure descendants", err)
	}
	return scanNodes(rows)
}

// DependedOnBy returns every node that reaches node through the closure of
// relType, excluding node itself, ascending.
func (g *Graph) DependedOnBy(ctx context.Context, relType closure.RelationshipType, node digraph.NodeID) ([]digraph.NodeID, error) {
	query := `
		SELECT tr_key
		FROM relationships
		WHERE related_tr_key = $1 AND tr_key <> $1
			AND relationship_type = $2 AND transitive_closure = TRUE
		ORDER BY tr_key
	`
	rows, err := g.db.QueryContext(ctx, query, node, int(relType))
	if err != nil {
		return nil, apperrors.StoreError("failed to query closure ancestors", err)
	}
	return scanNodes(rows)
}

// ReplaceDirectArcs adds origin -> t for every t in add and removes
// origin -> t for every t in remove, in one transaction. Closure rows are
// left alone; run closure maintenance afterwards.
func (g *Graph) ReplaceDirectArcs(ctx context.Context, relType closure.RelationshipType, origin digraph.NodeID, add, remove []digraph.NodeID) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreError("failed to begin direct arc update", err)
	}
	defer tx.Rollback()

	if len(remove) > 0 {
		query := `
			DELETE FROM relationships
			WHERE tr_key = $1 AND related_tr_key = ANY($2)
				AND relationship_type = $3 AND transitive_closure = FALSE
		`
		if _, err := tx.ExecContext(ctx, query, origin, pq.Array(remove), int(relType)); err != nil {
			return apperrors.StoreError("failed to delete direct arcs", err)
		}
	}

	if len(add) > 0 {
		query := `
			INSERT INTO relationships (tr_key, related_tr_key, relationship_type, transitive_closure)
			SELECT $1::BIGINT, t, $3::INTEGER, FALSE
			FROM unnest($2::BIGINT[]) AS a(t)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, origin, pq.Array(add), int(relType)); err != nil {
			return apperrors.StoreError("failed to insert direct arcs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StoreError("failed to commit direct arc update", err)
	}

	g.logger.Debug("Replaced direct arcs",
		zap.Int64("origin", origin),
		zap.Int("relationship_type", int(relType)),
		zap.Int64s("added", add),
		zap.Int64s("removed", remove))

	return nil
}

func splitArcs(arcs []digraph.Arc) (froms, tos []int64) {
	froms = make([]int64, len(arcs))
	tos = make([]int64, len(arcs))
	for i, arc := range arcs {
		froms[i] = arc.From()
		tos[i] = arc.To()
	}
	return froms, tos
}

func scanArcs(rows *sql.Rows) ([]digraph.Arc, error) {
	defer rows.Close()

	var arcs []digraph.Arc
	for rows.Next() {
		var from, to int64
		if err := rows.Scan(&from, &to); err != nil {
			return nil, apperrors.StoreError("failed to scan arc row", err)
		}
		arcs = append(arcs, digraph.NewArc(from, to))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("error iterating arc rows", err)
	}
	return arcs, nil
}

func scanNodes(rows *sql.Rows) ([]digraph.NodeID, error) {
	defer rows.Close()

	var nodes []digraph.NodeID
	for rows.Next() {
		var node int64
		if err := rows.Scan(&node); err != nil {
			return nil, apperrors.StoreError("failed to scan node row", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("error iterating node rows", err)
	}
	return nodes, nil
}
