package graph

import (
	"database/sql"

	"go.uber.org/zap"
)

// Graph persists tracking-record relationships in the relationships table.
// Each row is either a direct arc, entered by a user, or a closure arc,
// derived by closure maintenance. Direct rows are the source of truth; the
// closure rows can always be rebuilt from them.
type Graph struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a Graph over db.
func New(db *sql.DB, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		db:     db,
		logger: logger,
	}
}
