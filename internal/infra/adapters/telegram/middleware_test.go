//go:build !integration

package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain/ports/repository"
)

func boundaryScope(buf *bytes.Buffer) *Scope {
	lg := zerolog.New(buf)
	return &Scope{Locale: "en", Log: &lg}
}

func TestErrorBoundary(t *testing.T) {
	ctx := context.Background()
	ev := &Event{Update: textUpdate(1, "x"), TraceID: "t1"}

	t.Run("should pass results through untouched", func(t *testing.T) {
		var buf bytes.Buffer
		h := ErrorBoundary()(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			return ResultClaimed, nil
		})
		res, err := h(ctx, ev, boundaryScope(&buf))
		if res != ResultClaimed || err != nil {
			t.Errorf("wanted claimed/nil, got %v/%v", res, err)
		}
		if buf.Len() != 0 {
			t.Errorf("nothing should be logged, got %q", buf.String())
		}
	})

	t.Run("should absorb handler errors", func(t *testing.T) {
		var buf bytes.Buffer
		h := ErrorBoundary()(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			return ResultRejected, errors.New("db is on fire")
		})
		_, err := h(ctx, ev, boundaryScope(&buf))
		if err != nil {
			t.Errorf("boundary must swallow the error, got %v", err)
		}
		if !strings.Contains(buf.String(), "db is on fire") {
			t.Errorf("error must be logged, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), `"from_id":1`) {
			t.Errorf("log must carry the sender id, got %q", buf.String())
		}
	})

	t.Run("should recover from panics with a stack", func(t *testing.T) {
		var buf bytes.Buffer
		h := ErrorBoundary()(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			panic("boom")
		})
		res, err := h(ctx, ev, boundaryScope(&buf))
		if res != ResultRejected || err != nil {
			t.Errorf("wanted rejected/nil after panic, got %v/%v", res, err)
		}
		out := buf.String()
		if !strings.Contains(out, "boom") || !strings.Contains(out, "stack") {
			t.Errorf("panic log must carry message and stack, got %q", out)
		}
	})
}

func TestSessionScope(t *testing.T) {
	ctx := context.Background()
	ev := &Event{Update: textUpdate(2, "x"), TraceID: "t2"}

	t.Run("should set and release the session around the handler", func(t *testing.T) {
		f := &mockSessionFactory{}
		var sawSession bool
		h := SessionScope(f)(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			sawSession = sc.Session != nil
			return ResultClaimed, nil
		})
		var buf bytes.Buffer
		if _, err := h(ctx, ev, boundaryScope(&buf)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sawSession {
			t.Error("handler should see the session on the scope")
		}
		if !f.balanced() {
			t.Error("session must be released after the handler returns")
		}
	})

	t.Run("should release even when the handler panics", func(t *testing.T) {
		f := &mockSessionFactory{}
		h := Chain(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			panic("boom")
		}, ErrorBoundary(), SessionScope(f))
		var buf bytes.Buffer
		h(ctx, ev, boundaryScope(&buf))
		if !f.balanced() {
			t.Error("session must be released after a panic")
		}
	})

	t.Run("should reject the update when acquire fails", func(t *testing.T) {
		f := &mockSessionFactory{
			AcquireFunc: func(ctx context.Context) (repository.Session, error) {
				return nil, errors.New("pool exhausted")
			},
		}
		h := SessionScope(f)(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
			t.Fatal("handler must not run without a session")
			return ResultClaimed, nil
		})
		var buf bytes.Buffer
		res, err := h(ctx, ev, boundaryScope(&buf))
		if res != ResultRejected || err == nil {
			t.Errorf("wanted rejected with an error, got %v/%v", res, err)
		}
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
				order = append(order, name)
				return next(ctx, ev, sc)
			}
		}
	}
	h := Chain(func(ctx context.Context, ev *Event, sc *Scope) (Result, error) {
		order = append(order, "handler")
		return ResultClaimed, nil
	}, mw("outer"), mw("inner"))

	var buf bytes.Buffer
	h(context.Background(), &Event{Update: tgbotapi.Update{}}, boundaryScope(&buf))

	want := []string{"outer", "inner", "handler"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("wanted order %v, got %v", want, order)
		}
	}
}
