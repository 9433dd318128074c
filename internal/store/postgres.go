package store

import (
	"context"
	"errors"
	"fmt"

	"incoin_webapp/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps keys in the kv_store table created by the embedded migrations.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and applies pending migrations.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	if err := db.RunMigrations(dsn); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, dsn, maxConns)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return v, nil
}

func (p *Postgres) Commit(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		if op.Delete {
			if _, err := tx.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, op.Key); err != nil {
				return fmt.Errorf("delete %s: %w", op.Key, err)
			}
			continue
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO kv_store (key, value, updated_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			op.Key, op.Value,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", op.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
