package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-lang-bot/internal/domain/ports/repository"
)

var _ repository.SessionFactory = (*SessionFactory)(nil)

// SessionFactory hands out per-update units of work: each session owns one
// pooled connection for the lifetime of a single update.
type SessionFactory struct {
	pool *pgxpool.Pool
}

func NewSessionFactory(pool *pgxpool.Pool) *SessionFactory {
	return &SessionFactory{pool: pool}
}

func (f *SessionFactory) Acquire(ctx context.Context) (repository.Session, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &session{conn: conn}, nil
}

type session struct {
	conn *pgxpool.Conn
}

func (s *session) Tx() repository.Tx { return s.conn }

func (s *session) Release() { s.conn.Release() }
