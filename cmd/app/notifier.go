package main

import (
	"context"
	"errors"

	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
)

// notifierRef breaks the construction cycle between the watch usecase and
// the Telegram adapter: the usecase holds this indirection, the adapter is
// assigned once it exists.
type notifierRef struct {
	adapter.ChangeNotifier
}

func (n *notifierRef) NotifyPriceChange(ctx context.Context, change model.PriceChange) error {
	if n.ChangeNotifier == nil {
		return errors.New("notifier not wired yet")
	}
	return n.ChangeNotifier.NotifyPriceChange(ctx, change)
}
