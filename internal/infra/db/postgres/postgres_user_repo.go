package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/model"
	"telegram-lang-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// Save upserts by telegram_id. The unique constraint arbitrates concurrent
// first interactions: the loser of the race lands on the existing row and
// scans its values back. locale_confirmed is OR-ed so a confirmation can
// never be undone by a concurrent write.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (telegram_id, first_name, locale, locale_confirmed)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE SET
  first_name       = EXCLUDED.first_name,
  locale           = EXCLUDED.locale,
  locale_confirmed = users.locale_confirmed OR EXCLUDED.locale_confirmed,
  updated_at       = now()
RETURNING id, locale, locale_confirmed, created_at, updated_at;
`
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	row := ex.QueryRow(ctx, q, u.TelegramID, u.FirstName, u.Locale, u.LocaleConfirmed)
	if err := row.Scan(&u.ID, &u.Locale, &u.LocaleConfirmed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	const q = `
SELECT id, telegram_id, first_name, locale, locale_confirmed, created_at, updated_at
  FROM users WHERE telegram_id = $1;
`
	ex, err := pickExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	row := ex.QueryRow(ctx, q, tgID)
	if err := row.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.Locale, &u.LocaleConfirmed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
