package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresBackend keeps cold-store documents in a single key/value table,
// for deployments without an object store.
type PostgresBackend struct {
	db *sqlx.DB
}

func NewPostgresBackend(connStr string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*PostgresBackend, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)

	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS cold_objects (
		key        TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := b.db.ExecContext(ctx, query)
	return err
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := b.db.GetContext(ctx, &body, `SELECT body FROM cold_objects WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return body, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, body []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO cold_objects (key, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		key, string(body),
	)
	return err
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
