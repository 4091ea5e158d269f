package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/infra/i18n"
)

// localeKeyboard builds the language picker for a specific user. Each button
// is labeled in its own language, and the issuing user's id travels in the
// callback data so the router can reject presses from anyone else.
func localeKeyboard(tr *i18n.Translator, uid int64) *adapter.ReplyMarkup {
	rows := make([][]adapter.Button, 0, len(tr.Locales()))
	for _, code := range tr.Locales() {
		rows = append(rows, []adapter.Button{{
			Text: localeLabel(tr, code),
			Data: fmt.Sprintf("choose_lang:%s:%d", code, uid),
		}})
	}
	return &adapter.ReplyMarkup{Buttons: rows}
}

// localeLabel is the display name of a language, taken from its own catalog.
func localeLabel(tr *i18n.Translator, code string) string {
	return tr.T(code, "lang_"+code)
}

// buildMarkup converts the transport-neutral markup to the wire type.
func buildMarkup(rm *adapter.ReplyMarkup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rm.Buttons))
	for _, row := range rm.Buttons {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			switch {
			case b.URL != "":
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			default:
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, btns)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// setCommandMenu publishes the bot command list, once untagged as the default
// and once per supported locale.
func setCommandMenu(api *tgbotapi.BotAPI, tr *i18n.Translator) error {
	if _, err := api.Request(tgbotapi.NewDeleteMyCommands()); err != nil {
		return fmt.Errorf("delete commands: %w", err)
	}
	commands := func(locale string) []tgbotapi.BotCommand {
		return []tgbotapi.BotCommand{
			{Command: "start", Description: tr.T(locale, "cmd_start")},
			{Command: "lang", Description: tr.T(locale, "cmd_lang")},
		}
	}
	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands(tr.Fallback())...)); err != nil {
		return fmt.Errorf("set default commands: %w", err)
	}
	scope := tgbotapi.NewBotCommandScopeDefault()
	for _, locale := range tr.Locales() {
		cfg := tgbotapi.NewSetMyCommandsWithScopeAndLanguage(scope, locale, commands(locale)...)
		if _, err := api.Request(cfg); err != nil {
			return fmt.Errorf("set %s commands: %w", locale, err)
		}
	}
	return nil
}
