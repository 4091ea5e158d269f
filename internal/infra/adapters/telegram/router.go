package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/infra/i18n"
	"telegram-lang-bot/internal/infra/metrics"
	"telegram-lang-bot/internal/infra/throttle"
)

type commandRoute struct {
	name   string
	bucket string
	fn     HandlerFunc
}

type callbackRoute struct {
	prefix string
	fn     HandlerFunc
}

// Router matches updates to registered routes, first match wins. Matched
// routes are guarded before their handler runs: every route is throttled per
// user, and callback routes additionally verify that the presser is the user
// the keyboard was issued for.
type Router struct {
	sender    adapter.Sender
	guard     *throttle.Guard
	tr        *i18n.Translator
	commands  []commandRoute
	callbacks []callbackRoute
}

func NewRouter(sender adapter.Sender, guard *throttle.Guard, tr *i18n.Translator) *Router {
	return &Router{sender: sender, guard: guard, tr: tr}
}

// Command registers a handler for /name, throttled in the given bucket.
func (r *Router) Command(name, bucket string, fn HandlerFunc) {
	r.commands = append(r.commands, commandRoute{name: name, bucket: bucket, fn: fn})
}

// CallbackPrefix registers a handler for callback queries whose data starts
// with prefix.
func (r *Router) CallbackPrefix(prefix string, fn HandlerFunc) {
	r.callbacks = append(r.callbacks, callbackRoute{prefix: prefix, fn: fn})
}

func (r *Router) Dispatch(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
	switch {
	case ev.Update.Message != nil:
		return r.dispatchMessage(ctx, ev, sc)
	case ev.Update.CallbackQuery != nil:
		return r.dispatchCallback(ctx, ev, sc)
	}
	return ResultUnclaimed, nil
}

func (r *Router) dispatchMessage(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
	msg := ev.Update.Message
	if !msg.IsCommand() || msg.From == nil {
		return ResultUnclaimed, nil
	}
	name := msg.Command()
	for _, route := range r.commands {
		if route.name != name {
			continue
		}
		if !r.guard.Allow(route.bucket, msg.From.ID) {
			// Flooded commands are dropped without any reply.
			metrics.IncThrottleDenied(route.bucket)
			sc.Log.Debug().Int64("from_id", msg.From.ID).Str("command", name).Msg("command throttled")
			return ResultRejected, nil
		}
		return route.fn(ctx, ev, sc)
	}
	return ResultUnclaimed, nil
}

func (r *Router) dispatchCallback(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
	cq := ev.Update.CallbackQuery
	if cq.From == nil {
		return ResultUnclaimed, nil
	}
	for _, route := range r.callbacks {
		if !strings.HasPrefix(cq.Data, route.prefix) {
			continue
		}
		// All callback routes share one bucket regardless of prefix.
		if !r.guard.Allow(throttle.BucketCallback, cq.From.ID) {
			metrics.IncThrottleDenied(throttle.BucketCallback)
			sc.Log.Debug().Int64("from_id", cq.From.ID).Msg("callback throttled")
			// Bare answer so the client spinner stops.
			if err := r.sender.AnswerCallback(ctx, adapter.CallbackAnswerParams{CallbackID: cq.ID}); err != nil {
				sc.Log.Debug().Err(err).Msg("throttle answer failed")
			}
			return ResultRejected, nil
		}
		ok, err := r.allowOrigin(ctx, ev, sc)
		if err != nil {
			return ResultRejected, err
		}
		if !ok {
			return ResultRejected, nil
		}
		return route.fn(ctx, ev, sc)
	}
	return ResultUnclaimed, nil
}

// allowOrigin checks the trailing user id segment keyboards embed in callback
// data against the presser. A foreign press gets a localized toast and goes no
// further; data without a numeric tail is a bug in keyboard construction and
// surfaces as an error.
func (r *Router) allowOrigin(ctx context.Context, ev *Event, sc *Scope) (bool, error) {
	cq := ev.Update.CallbackQuery
	parts := strings.Split(cq.Data, ":")
	origin, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		return false, fmt.Errorf("callback data %q has no origin id: %w", cq.Data, domain.ErrInvalidArgument)
	}
	if origin == cq.From.ID {
		return true, nil
	}
	sc.Log.Debug().
		Int64("from_id", cq.From.ID).
		Int64("origin_id", origin).
		Msg("callback from wrong user")
	answer := adapter.CallbackAnswerParams{
		CallbackID: cq.ID,
		Text:       r.tr.T(sc.Locale, "call_incorrect_user"),
	}
	if err := r.sender.AnswerCallback(ctx, answer); err != nil {
		sc.Log.Debug().Err(err).Msg("origin answer failed")
	}
	return false, nil
}
