package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	apperrors "github.com/mgijax/wts/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Successfully connected to the database")
	return &PostgresStore{DB: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracking_records (
            id BIGSERIAL PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		// transitive_closure = FALSE rows are direct arcs entered by users,
		// TRUE rows are the derived closure, self-arcs included.
		`CREATE TABLE IF NOT EXISTS relationships (
            tr_key BIGINT NOT NULL,
            related_tr_key BIGINT NOT NULL,
            relationship_type INTEGER NOT NULL,
            transitive_closure BOOLEAN NOT NULL,
            PRIMARY KEY (relationship_type, transitive_closure, tr_key, related_tr_key)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_related
            ON relationships(relationship_type, transitive_closure, related_tr_key)`,
		`CREATE TABLE IF NOT EXISTS graph_metadata (
            relationship_type INTEGER PRIMARY KEY,
            last_sync_at TIMESTAMPTZ,
            status TEXT NOT NULL DEFAULT '',
            last_added INTEGER NOT NULL DEFAULT 0,
            last_deleted INTEGER NOT NULL DEFAULT 0
        )`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// CreateRecord inserts a tracking record and returns its key.
func (s *PostgresStore) CreateRecord(ctx context.Context, title string) (int64, error) {
	var id int64
	query := `INSERT INTO tracking_records (title) VALUES ($1) RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, title).Scan(&id); err != nil {
		return 0, apperrors.StoreError("failed to create tracking record", err)
	}
	return id, nil
}

// MissingRecords returns the ids that have no tracking record.
func (s *PostgresStore) MissingRecords(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT wanted.id
		FROM unnest($1::BIGINT[]) AS wanted(id)
		LEFT JOIN tracking_records tr ON tr.id = wanted.id
		WHERE tr.id IS NULL
		ORDER BY wanted.id
	`
	rows, err := s.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.StoreError("failed to check tracking records", err)
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StoreError("failed to scan tracking record id", err)
		}
		missing = append(missing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("error iterating tracking records", err)
	}
	return missing, nil
}

// RecordTitles maps each id that exists to its title.
func (s *PostgresStore) RecordTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	query := `SELECT id, title FROM tracking_records WHERE id = ANY($1)`
	rows, err := s.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.StoreError("failed to query tracking record titles", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, apperrors.StoreError("failed to scan tracking record title", err)
		}
		titles[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("error iterating tracking record titles", err)
	}
	return titles, nil
}
