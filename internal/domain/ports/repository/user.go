package repository

import (
	"context"

	"telegram-lang-bot/internal/domain/model"
)

type UserRepository interface {
	// Save inserts or updates by telegram_id and refreshes the store-assigned
	// fields (id, timestamps) on u.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
}
