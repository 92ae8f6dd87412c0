package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool (or pgx.Tx) used by PgCollection.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	nextIDQuery = `INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value`

	insertQuery = `INSERT INTO documents (collection, id, version, body)
VALUES ($1, $2, 1, $3::jsonb)
RETURNING version, created_at, updated_at`

	findByIDQuery = `SELECT id, version, body, created_at, updated_at
FROM documents WHERE collection = $1 AND id = $2`

	findQuery = `SELECT id, version, body, created_at, updated_at
FROM documents WHERE collection = $1 AND body @> $2::jsonb
ORDER BY id OFFSET $3 LIMIT $4`

	countQuery = `SELECT count(*) FROM documents WHERE collection = $1`

	replaceQuery = `UPDATE documents SET body = $4::jsonb, version = version + 1, updated_at = now()
WHERE collection = $1 AND id = $2 AND version = $3
RETURNING version, created_at, updated_at`

	existsQuery = `SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`

	deleteQuery = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// PgCollection implements Collection on the documents table, one JSONB body per row.
type PgCollection[T any] struct {
	db   DBTX
	name string
}

var _ Collection[struct{}] = (*PgCollection[struct{}])(nil)

// NewPgCollection creates a collection named name backed by PostgreSQL.
func NewPgCollection[T any](db DBTX, name string) *PgCollection[T] {
	return &PgCollection[T]{db: db, name: name}
}

func (c *PgCollection[T]) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := c.db.QueryRow(ctx, nextIDQuery, c.name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", c.name, err)
	}
	return id, nil
}

func (c *PgCollection[T]) Insert(ctx context.Context, id int64, doc T) (*Record[T], error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}
	rec := Record[T]{ID: id, Doc: doc}
	err = c.db.QueryRow(ctx, insertQuery, c.name, id, body).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s document: %w", c.name, err)
	}
	return &rec, nil
}

func (c *PgCollection[T]) FindByID(ctx context.Context, id int64) (*Record[T], error) {
	rec, err := c.scan(c.db.QueryRow(ctx, findByIDQuery, c.name, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, berrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find %s by ID: %w", c.name, err)
	}
	return rec, nil
}

func (c *PgCollection[T]) Find(ctx context.Context, filter Filter, offset, limit int) ([]Record[T], error) {
	if filter == nil {
		filter = Filter{}
	}
	f, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s filter: %w", c.name, err)
	}
	rows, err := c.db.Query(ctx, findQuery, c.name, f, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", c.name, err)
	}
	defer rows.Close()

	records := make([]Record[T], 0)
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s document: %w", c.name, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", c.name, err)
	}
	return records, nil
}

func (c *PgCollection[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRow(ctx, countQuery, c.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", c.name, err)
	}
	return n, nil
}

func (c *PgCollection[T]) Replace(ctx context.Context, id int64, version int32, doc T) (*Record[T], error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}
	rec := Record[T]{ID: id, Doc: doc}
	err = c.db.QueryRow(ctx, replaceQuery, c.name, id, version, body).Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update %s document: %w", c.name, err)
	}

	var exists bool
	if err := c.db.QueryRow(ctx, existsQuery, c.name, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to update %s document: %w", c.name, err)
	}
	if exists {
		return nil, berrors.ErrOptimisticLock
	}
	return nil, berrors.ErrDocumentNotFound
}

func (c *PgCollection[T]) Delete(ctx context.Context, id int64) error {
	tag, err := c.db.Exec(ctx, deleteQuery, c.name, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s by ID: %w", c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return berrors.ErrDocumentNotFound
	}
	return nil
}

func (c *PgCollection[T]) scan(row pgx.Row) (*Record[T], error) {
	var (
		rec  Record[T]
		body []byte
	)
	if err := row.Scan(&rec.ID, &rec.Version, &body, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &rec.Doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %d: %w", c.name, rec.ID, err)
	}
	return &rec, nil
}
