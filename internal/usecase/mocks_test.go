//go:build !integration

package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/model"
	"telegram-lang-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// memUserRepo is a small in-memory implementation used by unit tests.
// Func fields override the default behavior per test case.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.User // by TelegramID
	next  int64

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[int64]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.store[u.TelegramID]; ok {
		// mirror the upsert: the row keeps its id and confirmation stays monotonic
		u.ID = prev.ID
		u.LocaleConfirmed = u.LocaleConfirmed || prev.LocaleConfirmed
		u.CreatedAt = prev.CreatedAt
	} else {
		m.next++
		u.ID = m.next
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.store[u.TelegramID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if m.FindByTelegramIDFunc != nil {
		return m.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeTxManager runs the callback directly; unit tests have no real database.
type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
