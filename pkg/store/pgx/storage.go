// Package pgx implements DocumentStorage on PostgreSQL with pgvector.
// Nearest-neighbor ranking is delegated to the pgvector cosine distance
// operator; this package only guarantees that every vector entering the
// store matches the bound dimensionality.
package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/berryware/berryrag/pkg/common"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// DocumentDBStorage implements the DocumentStorage interface using
// PostgreSQL with pgvector for vector similarity search.
type DocumentDBStorage struct {
	conn      pgxIConn
	provider  string
	dimension int
}

// NewDocumentDBStorageWithConnection creates a DocumentDBStorage on an
// existing connection or pool. The schema must already be migrated.
func NewDocumentDBStorageWithConnection(ctx context.Context, conn pgxIConn) (*DocumentDBStorage, error) {
	s := &DocumentDBStorage{conn: conn}

	// Pick up a binding left by an earlier process so dimension checks
	// hold across restarts.
	row := conn.QueryRow(ctx, `SELECT provider, dimension FROM store_meta`)
	var provider string
	var dimension int
	switch err := row.Scan(&provider, &dimension); err {
	case nil:
		s.provider = provider
		s.dimension = dimension
	case pgxv5.ErrNoRows:
	default:
		return nil, common.Wrapf(common.ErrStorageUnavailable, "read store meta: %v", err)
	}
	return s, nil
}

// BindProvider records the active embedding provider in store_meta.
// Rebinding a non-empty store to a different dimensionality is refused.
func (s *DocumentDBStorage) BindProvider(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return common.Validationf("dimension", "must be positive, got %d", dimension)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "begin: %v", err)
	}
	defer tx.Rollback(ctx)

	var current int
	var docs int
	err = tx.QueryRow(ctx, `SELECT COALESCE((SELECT dimension FROM store_meta), 0), (SELECT COUNT(*) FROM documents)`).Scan(&current, &docs)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "read store meta: %v", err)
	}
	if current != 0 && current != dimension && docs > 0 {
		return common.Validationf("provider",
			"store holds %d-dimensional vectors, cannot rebind to %q with dimension %d; rebuild the store",
			current, name, dimension)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO store_meta (id, provider, dimension) VALUES (TRUE, $1, $2)
		ON CONFLICT (id) DO UPDATE SET provider = EXCLUDED.provider, dimension = EXCLUDED.dimension`,
		name, dimension)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "bind provider: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "commit: %v", err)
	}

	s.provider = name
	s.dimension = dimension
	return nil
}
