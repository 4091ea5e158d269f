package telegram

import (
	"context"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain/model"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/domain/ports/repository"
	"telegram-lang-bot/internal/infra/i18n"
	"telegram-lang-bot/internal/infra/metrics"
	"telegram-lang-bot/internal/infra/throttle"
	"telegram-lang-bot/internal/usecase"
)

// Result is the outcome a handler or middleware reports for an update.
type Result int

const (
	// ResultUnclaimed means no route recognized the update. These are the
	// updates the unhandled reporter records.
	ResultUnclaimed Result = iota
	// ResultClaimed means a route handled the update.
	ResultClaimed
	// ResultRejected means the pipeline deliberately stopped the update
	// (throttled, wrong callback origin, failed). Not unhandled, not handled.
	ResultRejected
)

// Event wraps one inbound update together with its trace id.
type Event struct {
	Update  tgbotapi.Update
	TraceID string
}

// From returns the human behind the update, nil when there is none.
func (e *Event) From() *tgbotapi.User {
	switch {
	case e.Update.CallbackQuery != nil:
		return e.Update.CallbackQuery.From
	case e.Update.Message != nil:
		return e.Update.Message.From
	}
	return nil
}

// Chat returns the chat the update belongs to, nil when unknown.
func (e *Event) Chat() *tgbotapi.Chat {
	switch {
	case e.Update.CallbackQuery != nil && e.Update.CallbackQuery.Message != nil:
		return e.Update.CallbackQuery.Message.Chat
	case e.Update.Message != nil:
		return e.Update.Message.Chat
	}
	return nil
}

// ChatID returns the chat id, 0 when unknown.
func (e *Event) ChatID() int64 {
	if chat := e.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

func (e *Event) Kind() string {
	switch {
	case e.Update.CallbackQuery != nil:
		return "callback"
	case e.Update.Message != nil:
		return "message"
	}
	return "other"
}

// excerpt renders a truncated JSON view of the update for log records.
func (e *Event) excerpt() string {
	b, err := json.Marshal(e.Update)
	if err != nil {
		return "<unserializable update>"
	}
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// Scope carries the per-update state the middleware chain builds up before the
// routed handler runs. One Scope per update, never shared.
type Scope struct {
	// Session is the unit of work for this update, set by SessionScope.
	Session repository.Session
	// User is the resolved sender, set by UserResolve.
	User *model.User
	// Locale starts at the fallback and is narrowed as the user is resolved.
	Locale string
	// Log is the base logger with the trace id attached.
	Log *zerolog.Logger
}

type HandlerFunc func(ctx context.Context, ev *Event, sc *Scope) (Result, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain wraps h with the given middleware, mws[0] outermost.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Pipeline is the full update processing chain: error boundary, per-update
// database session, unhandled reporting, user resolution, then routing.
type Pipeline struct {
	handler HandlerFunc
	tr      *i18n.Translator
	log     *zerolog.Logger
}

func NewPipeline(
	sender adapter.Sender,
	sessions repository.SessionFactory,
	users usecase.UserUseCase,
	tr *i18n.Translator,
	guard *throttle.Guard,
	logger *zerolog.Logger,
	unhandled *zerolog.Logger,
) *Pipeline {
	r := NewRouter(sender, guard, tr)
	r.Command("start", throttle.BucketDefault, startCommand(sender, tr))
	r.Command("lang", throttle.BucketDefault, langCommand(sender, tr))
	r.CallbackPrefix("choose_lang:", chooseLangCallback(sender, users, tr))

	h := Chain(r.Dispatch,
		ErrorBoundary(),
		SessionScope(sessions),
		UnhandledReporter(unhandled),
		UserResolve(users),
	)
	return &Pipeline{handler: h, tr: tr, log: logger}
}

// Process runs one update through the chain. It never returns an error; the
// boundary middleware absorbs and logs every failure.
func (p *Pipeline) Process(ctx context.Context, upd tgbotapi.Update) {
	ev := &Event{Update: upd, TraceID: uuid.NewString()}
	metrics.IncUpdateReceived(ev.Kind())

	lg := p.log.With().Str("trace_id", ev.TraceID).Logger()
	sc := &Scope{Locale: p.tr.Fallback(), Log: &lg}
	_, _ = p.handler(ctx, ev, sc)
}
