// Package storage keeps report objects in PostgreSQL, for deployments that
// have a database but no object store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/xetrapulse/internal/objectstore"
)

// undefinedTable is the SQLSTATE Postgres returns when the objects table
// does not exist.
const undefinedTable = "42P01"

// ObjectRepository stores the objects of one bucket in the objects table.
// It satisfies objectstore.Store, so the pipeline can run against it
// unchanged.
type ObjectRepository struct {
	db     *sql.DB
	bucket string
}

var _ objectstore.Store = (*ObjectRepository)(nil)
var _ objectstore.Pinger = (*ObjectRepository)(nil)

// NewObjectRepository binds the repository to one bucket name.
func NewObjectRepository(db *sql.DB, bucket string) *ObjectRepository {
	return &ObjectRepository{db: db, bucket: bucket}
}

// List returns the keys of the bucket starting with prefix, ascending.
func (r *ObjectRepository) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM objects WHERE bucket = $1 AND starts_with(key, $2) ORDER BY key`,
		r.bucket, prefix)
	if err != nil {
		return nil, r.wrap("list", prefix, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, r.wrap("list", prefix, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("list", prefix, err)
	}
	return keys, nil
}

// Get returns the body of key, or objectstore.ErrNotFound.
func (r *ObjectRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM objects WHERE bucket = $1 AND key = $2`,
		r.bucket, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s/%s: %w", r.bucket, key, objectstore.ErrNotFound)
		}
		return nil, r.wrap("get", key, err)
	}
	return body, nil
}

// Put inserts or replaces key.
func (r *ObjectRepository) Put(ctx context.Context, key string, body []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO objects (bucket, key, body, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bucket, key)
		DO UPDATE SET body = EXCLUDED.body,
					  size = EXCLUDED.size,
					  updated_at = NOW()
	`, r.bucket, key, body, len(body))
	if err != nil {
		return r.wrap("put", key, err)
	}
	return nil
}

// Ping checks the database connection.
func (r *ObjectRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ObjectRepository) wrap(op, key string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%s %s/%s: objects table missing, run migrations: %w", op, r.bucket, key, err)
	}
	return fmt.Errorf("%s %s/%s: %w", op, r.bucket, key, err)
}
