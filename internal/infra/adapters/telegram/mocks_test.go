//go:build !integration

package telegram

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/domain"
	"telegram-lang-bot/internal/domain/model"
	"telegram-lang-bot/internal/domain/ports/adapter"
	"telegram-lang-bot/internal/domain/ports/repository"
	"telegram-lang-bot/internal/infra/i18n"
	"telegram-lang-bot/internal/infra/throttle"
	"telegram-lang-bot/internal/usecase"
)

// mockSender records outbound traffic. Func fields override per test case.
type mockSender struct {
	mu       sync.Mutex
	sent     []adapter.SendMessageParams
	edited   []adapter.EditMessageParams
	answered []adapter.CallbackAnswerParams

	SendMessageFunc    func(ctx context.Context, p adapter.SendMessageParams) error
	EditMessageFunc    func(ctx context.Context, p adapter.EditMessageParams) error
	AnswerCallbackFunc func(ctx context.Context, p adapter.CallbackAnswerParams) error
}

func (m *mockSender) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, p)
	return nil
}

func (m *mockSender) EditMessage(ctx context.Context, p adapter.EditMessageParams) error {
	if m.EditMessageFunc != nil {
		return m.EditMessageFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, p)
	return nil
}

func (m *mockSender) AnswerCallback(ctx context.Context, p adapter.CallbackAnswerParams) error {
	if m.AnswerCallbackFunc != nil {
		return m.AnswerCallbackFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, p)
	return nil
}

func (m *mockSender) counts() (sent, edited, answered int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent), len(m.edited), len(m.answered)
}

// mockSessionFactory hands out sessions and counts their releases so tests can
// verify the unit of work always closes.
type mockSessionFactory struct {
	mu       sync.Mutex
	acquired int
	released int

	AcquireFunc func(ctx context.Context) (repository.Session, error)
}

type mockSession struct {
	f *mockSessionFactory
}

func (s *mockSession) Tx() repository.Tx { return repository.NoTX }

func (s *mockSession) Release() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.released++
}

func (f *mockSessionFactory) Acquire(ctx context.Context) (repository.Session, error) {
	if f.AcquireFunc != nil {
		return f.AcquireFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	return &mockSession{f: f}, nil
}

func (f *mockSessionFactory) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired == f.released
}

// memUserRepo backs the real use case in pipeline tests.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.User
	next  int64

	SaveFunc func(ctx context.Context, tx repository.Tx, u *model.User) error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[int64]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.store[u.TelegramID]; ok {
		u.ID = prev.ID
		u.LocaleConfirmed = u.LocaleConfirmed || prev.LocaleConfirmed
		u.CreatedAt = prev.CreatedAt
	} else {
		m.next++
		u.ID = m.next
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.store[u.TelegramID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) get(tgID int64) *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[tgID]
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// testEnv wires a pipeline over mocks and an in-memory repository.
type testEnv struct {
	pipeline  *Pipeline
	sender    *mockSender
	sessions  *mockSessionFactory
	repo      *memUserRepo
	tr        *i18n.Translator
	unhandled *bytes.Buffer
}

func newTestEnv(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()

	tr, err := i18n.Default([]string{"en", "ru"}, "en")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	guard := throttle.NewGuard(ttl, 100, throttle.BucketDefault, throttle.BucketCallback)
	t.Cleanup(guard.Stop)

	repo := newMemUserRepo()
	discard := zerolog.New(io.Discard)
	users := usecase.NewUserUseCase(repo, fakeTxManager{}, []string{"en", "ru"}, "en", &discard)

	sender := &mockSender{}
	sessions := &mockSessionFactory{}
	var buf bytes.Buffer
	unhandled := zerolog.New(&buf)

	p := NewPipeline(sender, sessions, users, tr, guard, &discard, &unhandled)
	return &testEnv{
		pipeline:  p,
		sender:    sender,
		sessions:  sessions,
		repo:      repo,
		tr:        tr,
		unhandled: &buf,
	}
}

func (e *testEnv) unhandledRecords() int {
	return bytes.Count(e.unhandled.Bytes(), []byte("\n"))
}

func commandUpdate(uid int64, name, firstName, lang string) tgbotapi.Update {
	text := "/" + name
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: uid, FirstName: firstName, LanguageCode: lang},
		Chat:      &tgbotapi.Chat{ID: uid},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func textUpdate(uid int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: uid, FirstName: "Ann", UserName: "ann", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: uid},
		Text:      text,
	}}
}

func callbackUpdate(uid int64, firstName, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: uid, FirstName: firstName, LanguageCode: "en"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: uid}},
		Data:    data,
	}}
}
