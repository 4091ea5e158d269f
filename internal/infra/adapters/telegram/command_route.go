package telegram

import (
	"context"
	"fmt"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/infra/i18n"
)

// startCommand greets a returning user or, before the first explicit language
// choice, shows the locale keyboard instead.
func startCommand(sender adapter.Sender, tr *i18n.Translator) HandlerFunc {
	return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
		u := sc.User
		if u == nil {
			return ResultRejected, fmt.Errorf("start without resolved user: %w", domain.ErrInvalidExecContext)
		}
		if !u.LocaleConfirmed {
			err := sender.SendMessage(ctx, adapter.SendMessageParams{
				ChatID:      ev.ChatID(),
				Text:        tr.T(sc.Locale, "choose_lang"),
				ReplyMarkup: localeKeyboard(tr, u.TelegramID),
			})
			if err != nil {
				return ResultRejected, err
			}
			return ResultClaimed, nil
		}
		err := sender.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: ev.ChatID(),
			Text:   tr.T(sc.Locale, "hello", u.FirstName),
		})
		if err != nil {
			return ResultRejected, err
		}
		return ResultClaimed, nil
	}
}

// langCommand always offers the locale keyboard.
func langCommand(sender adapter.Sender, tr *i18n.Translator) HandlerFunc {
	return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
		u := sc.User
		if u == nil {
			return ResultRejected, fmt.Errorf("lang without resolved user: %w", domain.ErrInvalidExecContext)
		}
		err := sender.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:      ev.ChatID(),
			Text:        tr.T(sc.Locale, "choose_lang"),
			ReplyMarkup: localeKeyboard(tr, u.TelegramID),
		})
		if err != nil {
			return ResultRejected, err
		}
		return ResultClaimed, nil
	}
}
