package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
)

// Ensure interface compliance
var _ adapter.SampleInvalidator = (*SampleCache)(nil)

// SampleCache keeps recent PriceSamples keyed by product URL so that the
// same page added by several chats is not re-fetched within the TTL.
type SampleCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSampleCache(client RedisClient, ttl time.Duration) *SampleCache {
	return &SampleCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *SampleCache) Store(ctx context.Context, s model.PriceSample) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sampleKey(s.URL), data, c.ttl)
}

// Get returns the cached sample for url, or (nil, nil) on a miss.
func (c *SampleCache) Get(ctx context.Context, url string) (*model.PriceSample, error) {
	data, err := c.client.Get(ctx, sampleKey(url))
	if err != nil {
		if errors.Is(err, Nil) {
			return nil, nil
		}
		return nil, err
	}

	var s model.PriceSample
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *SampleCache) Invalidate(ctx context.Context, url string) error {
	return c.client.Del(ctx, sampleKey(url))
}

func sampleKey(url string) string { return "price_sample:" + url }
