package telegram

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain/ports/repository"
	"telegram-lang-bot/internal/infra/metrics"
	"telegram-lang-bot/internal/usecase"
)

// ErrorBoundary is the outermost middleware. It turns handler errors and
// panics into log records so one bad update never takes a worker down.
func ErrorBoundary() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ev *Event, sc *Scope) (res Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					metrics.IncPipelineError()
					logFailure(sc, ev, fmt.Sprintf("update panicked: %v", r), debug.Stack())
					res, err = ResultRejected, nil
				}
			}()
			res, err = next(ctx, ev, sc)
			if err != nil {
				metrics.IncPipelineError()
				logFailure(sc, ev, "update failed: "+err.Error(), nil)
				return res, nil
			}
			return res, nil
		}
	}
}

func logFailure(sc *Scope, ev *Event, msg string, stack []byte) {
	e := sc.Log.Error()
	if from := ev.From(); from != nil {
		e = e.Int64("from_id", from.ID)
	}
	if chat := ev.ChatID(); chat != 0 {
		e = e.Int64("chat_id", chat)
	}
	e = e.Str("update", ev.excerpt())
	if stack != nil {
		e = e.Bytes("stack", stack)
	}
	e.Msg(msg)
}

// SessionScope opens the per-update unit of work and guarantees its release.
func SessionScope(sessions repository.SessionFactory) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			s, err := sessions.Acquire(ctx)
			if err != nil {
				return ResultRejected, fmt.Errorf("acquire session: %w", err)
			}
			defer s.Release()
			sc.Session = s
			return next(ctx, ev, sc)
		}
	}
}

// UnhandledReporter records updates no route claimed. Rejected updates
// (throttled, wrong origin) were seen and dealt with, so they do not count.
func UnhandledReporter(log *zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			res, err := next(ctx, ev, sc)
			if err == nil && res == ResultUnclaimed {
				metrics.IncUnhandled()
				rec := log.Info().
					Str("trace_id", ev.TraceID).
					Str("kind", ev.Kind())
				if from := ev.From(); from != nil {
					rec = rec.
						Str("from_name", from.FirstName).
						Str("from_username", from.UserName).
						Int64("from_id", from.ID)
				}
				if chat := ev.Chat(); chat != nil {
					rec = rec.Int64("chat_id", chat.ID)
					if chat.Title != "" {
						rec = rec.Str("chat_title", chat.Title)
					}
				}
				rec.Str("update", ev.excerpt()).Msg("unhandled update")
			}
			return res, err
		}
	}
}

// UserResolve upserts the sender and narrows the scope locale to theirs.
// Updates without a sender pass through untouched.
func UserResolve(users usecase.UserUseCase) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			from := ev.From()
			if from == nil {
				return next(ctx, ev, sc)
			}
			u, created, err := users.ResolveInteraction(ctx, from.ID, from.FirstName, from.LanguageCode)
			if err != nil {
				return ResultRejected, fmt.Errorf("resolve user: %w", err)
			}
			if created {
				metrics.IncUserCreated()
			}
			sc.User = u
			sc.Locale = u.Locale
			return next(ctx, ev, sc)
		}
	}
}
