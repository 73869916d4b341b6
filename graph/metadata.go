package graph

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mgijax/wts/closure"
	apperrors "github.com/mgijax/wts/errors"
)

// SyncMetadata records the outcome of the latest closure sync for a
// relationship type.
type SyncMetadata struct {
	RelationshipType closure.RelationshipType
	LastSyncAt       time.Time
	Status           string
	LastAdded        int
	LastDeleted      int
}

// TouchMetadata upserts the graph_metadata record for relType, updating last_sync_at.
func (g *Graph) TouchMetadata(ctx context.Context, relType closure.RelationshipType, added, deleted int) error {
	query := `
		INSERT INTO graph_metadata (relationship_type, last_sync_at, status, last_added, last_deleted)
		VALUES ($1, NOW(), 'synced', $2, $3)
		ON CONFLICT (relationship_type)
		DO UPDATE SET last_sync_at = EXCLUDED.last_sync_at,
			status = EXCLUDED.status,
			last_added = EXCLUDED.last_added,
			last_deleted = EXCLUDED.last_deleted
	`
	if _, err := g.db.ExecContext(ctx, query, int(relType), added, deleted); err != nil {
		return apperrors.StoreError("failed to touch graph metadata", err)
	}
	return nil
}

// GetMetadata returns the sync metadata for relType, or ErrNotFound if no
// sync has been recorded.
func (g *Graph) GetMetadata(ctx context.Context, relType closure.RelationshipType) (*SyncMetadata, error) {
	query := `
		SELECT relationship_type, last_sync_at, status, last_added, last_deleted
		FROM graph_metadata
		WHERE relationship_type = $1
	`
	var meta SyncMetadata
	var rt int
	err := g.db.QueryRowContext(ctx, query, int(relType)).
		Scan(&rt, &meta.LastSyncAt, &meta.Status, &meta.LastAdded, &meta.LastDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapErrorf(apperrors.ErrNotFound, "no sync recorded for relationship type %d", relType)
		}
		return nil, apperrors.StoreError("failed to read graph metadata", err)
	}
	meta.RelationshipType = closure.RelationshipType(rt)
	return &meta, nil
}
