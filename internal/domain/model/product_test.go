package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"telegram-price-watch/internal/domain"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{"plain https", "https://shop.example/p/1", "https://shop.example/p/1", nil},
		{"plain http", "http://shop.example/p/1", "http://shop.example/p/1", nil},
		{"strips query", "https://shop.example/p/1?utm_source=tg&ref=x", "https://shop.example/p/1", nil},
		{"strips fragment", "https://shop.example/p/1#reviews", "https://shop.example/p/1", nil},
		{"trims whitespace", "  https://shop.example/p/1 ", "https://shop.example/p/1", nil},
		{"no scheme", "shop.example/p/1", "", domain.ErrInvalidURL},
		{"wrong scheme", "ftp://shop.example/p/1", "", domain.ErrInvalidURL},
		{"no host", "https://", "", domain.ErrInvalidURL},
		{"garbage", "not a url at all", "", domain.ErrInvalidURL},
		{"empty", "", "", domain.ErrInvalidURL},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.raw)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NormalizeURL(%q) error = %v, want %v", tc.raw, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNewTrackedProduct(t *testing.T) {
	t.Parallel()

	p, err := NewTrackedProduct(42, "https://shop.example/p/1?x=1")
	if err != nil {
		t.Fatalf("NewTrackedProduct failed: %v", err)
	}
	if p.ID == "" {
		t.Error("expected a generated id")
	}
	if p.URL != "https://shop.example/p/1" {
		t.Errorf("URL = %q, want normalized form", p.URL)
	}
	if p.IsTracking() {
		t.Error("a new product must not be tracking yet")
	}

	if _, err := NewTrackedProduct(0, "https://shop.example/p/1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero chat id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewTrackedProduct(42, "nope"); !errors.Is(err, domain.ErrInvalidURL) {
		t.Errorf("bad url: expected ErrInvalidURL, got %v", err)
	}
}

func TestObservePrice(t *testing.T) {
	t.Parallel()

	sample := func(price string) PriceSample {
		return PriceSample{
			Name:       "Widget",
			Price:      decimal.RequireFromString(price),
			Currency:   "EUR",
			ObservedAt: time.Now(),
		}
	}

	p, err := NewTrackedProduct(42, "https://shop.example/p/1")
	if err != nil {
		t.Fatalf("NewTrackedProduct failed: %v", err)
	}

	if changed := p.ObservePrice(sample("19.99")); changed {
		t.Error("first observation must not count as a change")
	}
	if !p.IsTracking() || !p.LastPrice.Decimal.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("price not adopted, got %+v", p.LastPrice)
	}
	if p.Name != "Widget" {
		t.Errorf("Name = %q, want sample name", p.Name)
	}
	if p.LastCheckedAt.IsZero() {
		t.Error("LastCheckedAt not set")
	}

	if changed := p.ObservePrice(sample("19.99")); changed {
		t.Error("equal price must not count as a change")
	}
	if changed := p.ObservePrice(sample("18.50")); !changed {
		t.Error("18.50 after 19.99 must count as a change")
	}
	if changed := p.ObservePrice(sample("21.00")); !changed {
		t.Error("a raise counts as a change too")
	}

	// Numeric equality, not textual: 19.9 and 19.90 are the same price.
	p.ObservePrice(sample("19.90"))
	if changed := p.ObservePrice(sample("19.9")); changed {
		t.Error("19.9 equals 19.90, must not report a change")
	}
}

func TestPriceChange(t *testing.T) {
	t.Parallel()

	change := PriceChange{
		OldPrice: decimal.RequireFromString("19.99"),
		NewPrice: decimal.RequireFromString("18.50"),
	}
	if !change.Dropped() {
		t.Error("19.99 -> 18.50 must be a drop")
	}
	if !change.Delta().Equal(decimal.RequireFromString("-1.49")) {
		t.Errorf("Delta = %s, want -1.49", change.Delta())
	}
	if change.DeltaPercent().Round(2).String() != "-7.45" {
		t.Errorf("DeltaPercent = %s, want -7.45", change.DeltaPercent().Round(2))
	}

	zeroOld := PriceChange{
		OldPrice: decimal.Zero,
		NewPrice: decimal.RequireFromString("5"),
	}
	if !zeroOld.DeltaPercent().IsZero() {
		t.Errorf("DeltaPercent with zero old price = %s, want 0", zeroOld.DeltaPercent())
	}
}
