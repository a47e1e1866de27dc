package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/repository"
)

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// memProductRepo is a small in-memory implementation used by unit tests.
type memProductRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.TrackedProduct
	order   []string
	saveErr error // used by tests to simulate save failures
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{store: make(map[string]*model.TrackedProduct)}
}

func (m *memProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.TrackedProduct) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[p.ID]; !exists {
		for _, id := range m.order {
			other := m.store[id]
			if other.OwnerChatID == p.OwnerChatID && other.URL == p.URL {
				return domain.ErrAlreadyTracked
			}
		}
		m.order = append(m.order, p.ID)
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProductRepo) Update(ctx context.Context, tx repository.Tx, p *model.TrackedProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProductRepo) Delete(ctx context.Context, tx repository.Tx, ownerChatID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.OwnerChatID != ownerChatID {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TrackedProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerChatID int64) ([]*model.TrackedProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ps []*model.TrackedProduct
	for _, id := range m.order {
		if p := m.store[id]; p.OwnerChatID == ownerChatID {
			cp := *p
			ps = append(ps, &cp)
		}
	}
	return ps, nil
}

func (m *memProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.TrackedProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps := make([]*model.TrackedProduct, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.store[id]
		ps = append(ps, &cp)
	}
	return ps, nil
}

func (m *memProductRepo) CountProducts(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memProductRepo) CountOwners(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owners := map[int64]struct{}{}
	for _, p := range m.store {
		owners[p.OwnerChatID] = struct{}{}
	}
	return len(owners), nil
}

// memHistoryRepo records appended price points.
type memHistoryRepo struct {
	mu     sync.Mutex
	points []model.PricePoint
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{}
}

func (m *memHistoryRepo) Append(ctx context.Context, tx repository.Tx, point model.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, point)
	return nil
}

func (m *memHistoryRepo) ListByProduct(ctx context.Context, tx repository.Tx, productID string, limit int) ([]model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pts []model.PricePoint
	for i := len(m.points) - 1; i >= 0; i-- {
		if m.points[i].ProductID == productID {
			pts = append(pts, m.points[i])
			if limit > 0 && len(pts) == limit {
				break
			}
		}
	}
	return pts, nil
}

func (m *memHistoryRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.PricePoint
	var removed int64
	for _, pt := range m.points {
		if pt.ObservedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, pt)
	}
	m.points = kept
	return removed, nil
}

// nopTxManager runs the callback without a real transaction.
type nopTxManager struct{}

func (nopTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// fakeSource returns canned samples or errors per URL.
type fakeSource struct {
	mu      sync.Mutex
	samples map[string]model.PriceSample
	errs    map[string]error
	fetches []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		samples: map[string]model.PriceSample{},
		errs:    map[string]error{},
	}
}

func (f *fakeSource) setPrice(url string, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[url] = model.PriceSample{
		URL:        url,
		Name:       "Test Product",
		Price:      mustDecimal(price),
		Currency:   "EUR",
		ObservedAt: time.Now(),
	}
	delete(f.errs, url)
}

func (f *fakeSource) setError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeSource) Fetch(ctx context.Context, url string) (model.PriceSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, url)
	if err, ok := f.errs[url]; ok {
		return model.PriceSample{}, err
	}
	s, ok := f.samples[url]
	if !ok {
		return model.PriceSample{}, domain.ErrFetchFailed
	}
	return s, nil
}

// fakeNotifier records delivered changes.
type fakeNotifier struct {
	mu      sync.Mutex
	changes []model.PriceChange
	err     error
}

func (f *fakeNotifier) NotifyPriceChange(ctx context.Context, change model.PriceChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, change)
	return nil
}
