package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every collection as a single jsonb row. It trades
// row-level granularity for the same whole-document semantics the file
// backend has, which keeps the two backends interchangeable.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPool(dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 5

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			key        TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	if err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var doc []byte

	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM collections WHERE key = $1`,
		key,
	).Scan(&doc)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoDocument
	}

	if err != nil {
		return nil, err
	}

	return json.RawMessage(doc), nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, doc json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collections (key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET doc = EXCLUDED.doc, updated_at = now()
	`, key, []byte(doc))

	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM collections WHERE key = $1`,
		key,
	)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNoDocument
	}

	return nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM collections ORDER BY key`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var k string

		err = rows.Scan(&k)

		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}
