package model

import (
	"net/url"
	"strings"
	"time"

	"telegram-price-watch/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackedProduct is a product page under price surveillance for one chat.
// LastPrice stays invalid (null) until the first successful poll; only a
// successful fetch+parse may change it.
type TrackedProduct struct {
	ID            string
	OwnerChatID   int64
	URL           string
	Name          string
	LastPrice     decimal.NullDecimal
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastCheckedAt time.Time
}

func NewTrackedProduct(ownerChatID int64, rawURL string) (*TrackedProduct, error) {
	if ownerChatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	cleanURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &TrackedProduct{
		ID:          uuid.NewString(),
		OwnerChatID: ownerChatID,
		URL:         cleanURL,
		Currency:    "EUR",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NormalizeURL validates a product page URL and strips the tracking noise
// (query and fragment) so the same product maps to the same record.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", domain.ErrInvalidURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// IsTracking reports whether the product has a known price, i.e. it left
// the NEW state.
func (p *TrackedProduct) IsTracking() bool { return p.LastPrice.Valid }

// ObservePrice applies a successful sample to the product and reports
// whether the price changed against the last known one. The first sample
// is adopted silently.
func (p *TrackedProduct) ObservePrice(s PriceSample) (changed bool) {
	now := time.Now()
	p.LastCheckedAt = now
	p.UpdatedAt = now
	if s.Name != "" {
		p.Name = s.Name
	}
	if s.Currency != "" {
		p.Currency = s.Currency
	}
	if p.LastPrice.Valid && p.LastPrice.Decimal.Equal(s.Price) {
		return false
	}
	changed = p.LastPrice.Valid
	p.LastPrice = decimal.NullDecimal{Decimal: s.Price, Valid: true}
	return changed
}

// PriceSample is one observation of a product page. It only lives long
// enough to drive the comparison against the stored price.
type PriceSample struct {
	URL        string
	Name       string
	Price      decimal.Decimal
	Currency   string
	ObservedAt time.Time
}

// PricePoint is a persisted history entry, one per successful poll.
type PricePoint struct {
	ProductID  string
	Price      decimal.Decimal
	ObservedAt time.Time
}
