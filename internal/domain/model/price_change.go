package model

import "github.com/shopspring/decimal"

// PriceChange is the notification event emitted when a poll observes a
// price different from the last known one.
type PriceChange struct {
	Product  *TrackedProduct
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
}

// Delta returns the signed absolute change.
func (c PriceChange) Delta() decimal.Decimal {
	return c.NewPrice.Sub(c.OldPrice)
}

// DeltaPercent returns the signed change in percent of the old price,
// zero when the old price was zero.
func (c PriceChange) DeltaPercent() decimal.Decimal {
	if c.OldPrice.IsZero() {
		return decimal.Zero
	}
	return c.Delta().Div(c.OldPrice).Mul(decimal.NewFromInt(100))
}

// Dropped reports whether the price went down.
func (c PriceChange) Dropped() bool {
	return c.NewPrice.LessThan(c.OldPrice)
}
