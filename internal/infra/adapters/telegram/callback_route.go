package telegram

import (
	"context"
	"fmt"
	"strings"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/infra/i18n"
	"telegram-lang-bot/internal/usecase"
)

// chooseLangCallback applies a locale keyboard press. Data layout is
// "choose_lang:<code>:<origin_id>"; the origin segment was already verified by
// the router.
func chooseLangCallback(sender adapter.Sender, users usecase.UserUseCase, tr *i18n.Translator) HandlerFunc {
	return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
		cq := ev.Update.CallbackQuery
		parts := strings.Split(cq.Data, ":")
		if len(parts) < 3 {
			return ResultRejected, fmt.Errorf("callback data %q is missing a locale: %w", cq.Data, domain.ErrInvalidArgument)
		}
		code := parts[1]
		if sc.User == nil || sc.Session == nil {
			return ResultRejected, fmt.Errorf("choose_lang without scope: %w", domain.ErrInvalidExecContext)
		}

		// Every reply from here on is in the freshly chosen language.
		sc.Locale = code
		first, err := users.SetLocale(ctx, sc.Session.Tx(), sc.User, code)
		if err != nil {
			return ResultRejected, fmt.Errorf("set locale %q: %w", code, err)
		}

		// Re-render the prompt and keyboard in the new language so the picker
		// stays usable in place. A stale or already edited message is not
		// worth failing the update over.
		if cq.Message != nil {
			edit := adapter.EditMessageParams{
				ChatID:      cq.Message.Chat.ID,
				MessageID:   cq.Message.MessageID,
				Text:        tr.T(sc.Locale, "choose_lang"),
				ReplyMarkup: localeKeyboard(tr, sc.User.TelegramID),
			}
			if err := sender.EditMessage(ctx, edit); err != nil {
				sc.Log.Debug().Err(err).Msg("prompt edit failed")
			}
		}

		if first {
			greeting := adapter.SendMessageParams{
				ChatID: ev.ChatID(),
				Text:   tr.T(sc.Locale, "hello", sc.User.FirstName),
			}
			if err := sender.SendMessage(ctx, greeting); err != nil {
				return ResultRejected, err
			}
		}

		answer := adapter.CallbackAnswerParams{
			CallbackID: cq.ID,
			Text:       tr.T(sc.Locale, "choosen_lang", code),
		}
		if err := sender.AnswerCallback(ctx, answer); err != nil {
			return ResultRejected, err
		}
		return ResultClaimed, nil
	}
}
