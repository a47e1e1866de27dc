package adapter

import (
	"context"

	"telegram-price-watch/internal/domain/model"
)

// PriceSource fetches a product page and extracts the current price.
// Implementations fail with domain.ErrFetchFailed when the page cannot be
// retrieved and domain.ErrPriceNotFound when it can but no price (or no
// product name) is recognizable in it.
type PriceSource interface {
	Fetch(ctx context.Context, url string) (model.PriceSample, error)
}

// SampleInvalidator drops a cached sample so the next fetch of the URL
// hits the page again.
type SampleInvalidator interface {
	Invalidate(ctx context.Context, url string) error
}
