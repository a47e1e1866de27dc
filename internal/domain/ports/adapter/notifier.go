package adapter

import (
	"context"

	"telegram-price-watch/internal/domain/model"
)

// ChangeNotifier delivers a detected price change to the chat that owns
// the product. The Telegram adapter is the production implementation.
type ChangeNotifier interface {
	NotifyPriceChange(ctx context.Context, change model.PriceChange) error
}
