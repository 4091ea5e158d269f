package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return pool, nil
}

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
    id               BIGSERIAL PRIMARY KEY,
    telegram_id      BIGINT NOT NULL UNIQUE,
    first_name       TEXT NOT NULL DEFAULT '',
    locale           TEXT NOT NULL,
    locale_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema bootstraps the users table and logs the server version.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, log *zerolog.Logger) error {
	if _, err := pool.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	var version string
	if err := pool.QueryRow(ctx, `SELECT version();`).Scan(&version); err != nil {
		return fmt.Errorf("server version: %w", err)
	}
	log.Info().Str("server", version).Msg("connected to database")
	return nil
}
