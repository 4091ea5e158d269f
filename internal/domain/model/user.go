package model

import (
	"time"

	"telegram-lang-bot/internal/domain"
)

// User is a domain entity representing a Telegram user in our system.
// One row per telegram_id; every update loads its own copy, nothing is cached
// across updates.
type User struct {
	ID              int64
	TelegramID      int64
	FirstName       string
	Locale          string
	LocaleConfirmed bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewUser(tgID int64, firstName, locale string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if locale == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		TelegramID: tgID,
		FirstName:  firstName,
		Locale:     locale,
	}, nil
}

// ChooseLocale switches the active locale and reports whether this was the
// user's first explicit choice. LocaleConfirmed is one-way: once true it never
// goes back to false.
func (u *User) ChooseLocale(code string) (first bool) {
	u.Locale = code
	if !u.LocaleConfirmed {
		u.LocaleConfirmed = true
		return true
	}
	return false
}

func (u *User) IsZero() bool { return u == nil || u.ID == 0 }
