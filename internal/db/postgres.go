package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

type Postgres struct {
	pool *pgxpool.Pool
	id   string
}

func NewPostgres(ctx context.Context, url, counterID string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, cserrors.StoreUnavailable("postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, cserrors.StoreUnavailable("postgres", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS room_counters (
			id TEXT PRIMARY KEY,
			rooms BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		pool.Close()
		return nil, cserrors.StoreUnavailable("postgres", err)
	}

	logging.NewLogger("db").Info("Connected to PostgreSQL")
	return &Postgres{pool: pool, id: counterID}, nil
}

func (p *Postgres) Increment(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO room_counters (id, rooms) VALUES ($1, 1)
		ON CONFLICT (id) DO UPDATE SET
			rooms = room_counters.rooms + 1,
			updated_at = now()
	`, p.id)
	return err
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, "SELECT rooms FROM room_counters WHERE id = $1", p.id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
