package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
	"telegram-price-watch/internal/infra/metrics"
	red "telegram-price-watch/internal/infra/redis"
)

// Ensure interface compliance
var _ adapter.PriceSource = (*Source)(nil)

const fetchRetries = 2

// Source fetches retail product pages over plain HTTP and extracts the
// price from the markup.
type Source struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   *red.SampleCache // may be nil
	log     *zerolog.Logger

	mu     sync.Mutex
	warmed map[string]struct{} // hosts visited at their root this process
}

func NewSource(client *http.Client, limiter *rate.Limiter, cache *red.SampleCache, logger *zerolog.Logger) *Source {
	srcLog := logger.With().Str("component", "Scraper").Logger()
	return &Source{
		client:  client,
		limiter: limiter,
		cache:   cache,
		log:     &srcLog,
		warmed:  map[string]struct{}{},
	}
}

func (s *Source) Fetch(ctx context.Context, pageURL string) (model.PriceSample, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pageURL)
		if err != nil {
			s.log.Warn().Err(err).Str("url", pageURL).Msg("sample cache read failed")
		} else if cached != nil {
			s.log.Debug().Str("url", pageURL).Msg("sample cache hit")
			return *cached, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return model.PriceSample{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	s.warmUp(ctx, pageURL)

	start := time.Now()
	body, err := s.get(ctx, pageURL)
	metrics.ObserveFetchLatency(time.Since(start), err == nil)
	if err != nil {
		return model.PriceSample{}, err
	}

	page, err := parsePage(body)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("%w: url: %s", err, pageURL)
	}

	sample := model.PriceSample{
		URL:        pageURL,
		Name:       page.Name,
		Price:      page.Price,
		Currency:   page.Currency,
		ObservedAt: time.Now(),
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, sample); err != nil {
			s.log.Warn().Err(err).Str("url", pageURL).Msg("sample cache write failed")
		}
	}
	return sample, nil
}

func (s *Source) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	for k, v := range browserHeaders() {
		req.Header[k] = v
	}

	resp, err := doWithRetry(s.client, req, fetchRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s for url: %s", domain.ErrFetchFailed, resp.Status, pageURL)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrFetchFailed, err)
	}
	return body, nil
}

// warmUp visits the site root once per host so the first product fetch
// carries the session cookies a browser would have. Best effort.
func (s *Source) warmUp(ctx context.Context, pageURL string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	s.mu.Lock()
	_, done := s.warmed[u.Host]
	if !done {
		s.warmed[u.Host] = struct{}{}
	}
	s.mu.Unlock()
	if done {
		return
	}

	root := u.Scheme + "://" + u.Host + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root, nil)
	if err != nil {
		return
	}
	for k, v := range browserHeaders() {
		req.Header[k] = v
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug().Err(err).Str("host", u.Host).Msg("warm-up visit failed")
		return
	}
	_ = resp.Body.Close()
}
