package telegram

import (
	"context"
	"log"
	"time"

	"telegram-price-watch/internal/application"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
)

var (
	_ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)
	_ adapter.ChangeNotifier     = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter implements the bot ports for local/dev testing.
// It logs messages instead of sending real Telegram messages.
type NoopBotAdapter struct{}

func NewNoopBotAdapter() *NoopBotAdapter {
	return &NoopBotAdapter{}
}

// SendMessage logs the message and simulates a small delay.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To chat %d: %s\n", chatID, text)
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("[noop-telegram] To chat %d: %s [buttons: %v]\n", chatID, text, rows)
	return nil
}

func (b *NoopBotAdapter) NotifyPriceChange(ctx context.Context, change model.PriceChange) error {
	return b.SendMessage(ctx, change.Product.OwnerChatID, application.BuildPriceAlert(change))
}
