package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/config"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/infra/i18n"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Compile-time check
var _ adapter.Sender = (*Bot)(nil)

// Bot owns the Telegram API client. It is the outbound adapter.Sender for
// handlers and, once a pipeline is attached, the inbound update source in
// either polling or webhook mode.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      config.BotConfig
	pipeline *Pipeline
	log      *zerolog.Logger
	wg       sync.WaitGroup
}

func NewBot(cfg config.BotConfig, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	return &Bot{api: api, cfg: cfg, log: logger}, nil
}

// AttachPipeline wires the processing chain in. Must be called before Startup.
func (b *Bot) AttachPipeline(p *Pipeline) { b.pipeline = p }

func (b *Bot) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	if p.ReplyMarkup != nil {
		msg.ReplyMarkup = buildMarkup(p.ReplyMarkup)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) EditMessage(ctx context.Context, p adapter.EditMessageParams) error {
	edit := tgbotapi.NewEditMessageText(p.ChatID, p.MessageID, p.Text)
	if p.ReplyMarkup != nil {
		mk := buildMarkup(p.ReplyMarkup)
		edit.ReplyMarkup = &mk
	}
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, p adapter.CallbackAnswerParams) error {
	cb := tgbotapi.NewCallback(p.CallbackID, p.Text)
	if _, err := b.api.Request(cb); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Startup clears any stale webhook, registers the configured delivery mode and
// publishes the command menu.
func (b *Bot) Startup(ctx context.Context, tr *i18n.Translator) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if b.cfg.Mode == "webhook" {
		params := tgbotapi.Params{"url": b.cfg.WebhookURL}
		if b.cfg.WebhookSecret != "" {
			params["secret_token"] = b.cfg.WebhookSecret
		}
		if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
	}
	if err := setCommandMenu(b.api, tr); err != nil {
		return err
	}
	b.log.Info().
		Str("username", b.api.Self.UserName).
		Str("mode", b.cfg.Mode).
		Msg("bot started")
	return nil
}

// StartPolling fans long-poll updates out to a worker pool. Workers keep
// processing in-flight updates after ctx is cancelled; Shutdown waits for
// them.
func (b *Bot) StartPolling(ctx context.Context) {
	queue := make(chan tgbotapi.Update, b.cfg.Workers*2)
	for i := 0; i < b.cfg.Workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for upd := range queue {
				b.pipeline.Process(context.WithoutCancel(ctx), upd)
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	go func() {
		defer close(queue)
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				queue <- upd
			}
		}
	}()
}

// WebhookHandler serves Telegram webhook deliveries. With a secret configured,
// requests missing the matching token header are refused before the payload is
// read.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b.cfg.WebhookSecret != "" && r.Header.Get(secretTokenHeader) != b.cfg.WebhookSecret {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		upd, err := b.api.HandleUpdate(r)
		if err != nil {
			b.log.Warn().Err(err).Msg("bad webhook payload")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		b.pipeline.Process(context.WithoutCancel(r.Context()), *upd)
		w.WriteHeader(http.StatusOK)
	}
}

// Shutdown waits for in-flight updates, bounded by ctx.
func (b *Bot) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.log.Warn().Msg("shutdown deadline hit with updates in flight")
	}
	b.log.Info().Msg("bot stopped")
}
