package adapter

import "context"

type Button struct {
	Text string
	Data string
	URL  string
}

type ReplyMarkup struct {
	Buttons [][]Button
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ReplyMarkup *ReplyMarkup
}

type EditMessageParams struct {
	ChatID      int64
	MessageID   int
	Text        string
	ReplyMarkup *ReplyMarkup
}

type CallbackAnswerParams struct {
	CallbackID string
	// Text is shown as a toast; empty answers just stop the client spinner.
	Text string
}

// Sender is the outbound half of the Telegram transport, used by handlers and
// guards.
type Sender interface {
	SendMessage(ctx context.Context, p SendMessageParams) error
	EditMessage(ctx context.Context, p EditMessageParams) error
	AnswerCallback(ctx context.Context, p CallbackAnswerParams) error
}
