package repository

import (
	"context"
	"time"

	"telegram-price-watch/internal/domain/model"
)

// -----------------------------
// Price history
// -----------------------------

type PriceHistoryRepository interface {
	Append(ctx context.Context, tx Tx, point model.PricePoint) error
	// ListByProduct returns points for one product, newest first, at most
	// limit entries (0 means no limit).
	ListByProduct(ctx context.Context, tx Tx, productID string, limit int) ([]model.PricePoint, error)
	// DeleteOlderThan prunes history rows observed before the cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
