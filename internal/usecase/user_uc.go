package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/model"
	"telegram-lang-bot/internal/domain/ports/repository"
	"telegram-lang-bot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes the user operations the dispatch pipeline needs.
type UserUseCase interface {
	// ResolveInteraction upserts the sender of an update: creates the user on
	// first contact (locale taken from langCode when supported, else the
	// fallback) or refreshes the display name of a known one. Reports whether
	// a new row was created.
	ResolveInteraction(ctx context.Context, tgID int64, firstName, langCode string) (*model.User, bool, error)
	// SetLocale applies an explicit locale choice to u and persists it on the
	// given unit of work. Reports whether this was the user's first
	// confirmation.
	SetLocale(ctx context.Context, tx repository.Tx, u *model.User, code string) (bool, error)
}

type userUC struct {
	users     repository.UserRepository
	tm        repository.TransactionManager
	supported map[string]struct{}
	fallback  string
	log       *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, supported []string, fallback string, logger *zerolog.Logger) *userUC {
	set := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		set[code] = struct{}{}
	}
	return &userUC{
		users:     users,
		tm:        tm,
		supported: set,
		fallback:  fallback,
		log:       logger,
	}
}

func (u *userUC) ResolveInteraction(ctx context.Context, tgID int64, firstName, langCode string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.ResolveInteraction")()

	var (
		user    *model.User
		created bool
	)
	// Find and save run as one transaction so the name refresh cannot clobber
	// a concurrent write; creation itself is idempotent because Save upserts
	// on telegram_id.
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if usr != nil {
			if firstName != "" && usr.FirstName != firstName {
				usr.FirstName = firstName
				if err := u.users.Save(ctx, tx, usr); err != nil {
					return fmt.Errorf("refresh user: %w", err)
				}
			}
			user = usr
			return nil
		}

		locale := u.fallback
		if _, ok := u.supported[langCode]; ok {
			locale = langCode
		}
		nu, err := model.NewUser(tgID, firstName, locale)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		user = nu
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		u.log.Info().Int64("tg_id", tgID).Str("locale", user.Locale).Msg("user created")
	}
	return user, created, nil
}

func (u *userUC) SetLocale(ctx context.Context, tx repository.Tx, usr *model.User, code string) (bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.SetLocale")()

	if _, ok := u.supported[code]; !ok {
		return false, fmt.Errorf("locale %q: %w", code, domain.ErrLocaleNotSupported)
	}
	first := usr.ChooseLocale(code)
	if err := u.users.Save(ctx, tx, usr); err != nil {
		return false, fmt.Errorf("save locale: %w", err)
	}
	return first, nil
}
