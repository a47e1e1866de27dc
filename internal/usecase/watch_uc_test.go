package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
)

func newWatchFixture(t *testing.T) (*memProductRepo, *memHistoryRepo, *fakeSource, *fakeNotifier, WatchUseCase) {
	t.Helper()
	repo := newMemProductRepo()
	history := newMemHistoryRepo()
	source := newFakeSource()
	notifier := &fakeNotifier{}
	log := zerolog.Nop()
	uc := NewWatchUseCase(repo, history, nopTxManager{}, source, notifier, 0, &log)
	return repo, history, source, notifier, uc
}

func addProduct(t *testing.T, repo *memProductRepo, chatID int64, url string) *model.TrackedProduct {
	t.Helper()
	p, err := model.NewTrackedProduct(chatID, url)
	if err != nil {
		t.Fatalf("NewTrackedProduct failed: %v", err)
	}
	if err := repo.Save(context.Background(), nil, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return p
}

func TestWatchUC_CheckAndNotify(t *testing.T) {
	t.Parallel()

	t.Run("first successful poll adopts the price silently", func(t *testing.T) {
		t.Parallel()
		repo, history, source, _, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")
		source.setPrice(p.URL, "19.99")

		change, err := uc.CheckAndNotify(context.Background(), p)
		if err != nil {
			t.Fatalf("CheckAndNotify failed: %v", err)
		}
		if change != nil {
			t.Errorf("first observation must not report a change, got %+v", change)
		}

		stored, err := repo.FindByID(context.Background(), nil, p.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if !stored.LastPrice.Valid || !stored.LastPrice.Decimal.Equal(mustDecimal("19.99")) {
			t.Errorf("expected stored price 19.99, got %+v", stored.LastPrice)
		}
		if len(history.points) != 1 {
			t.Errorf("expected 1 history point, got %d", len(history.points))
		}
	})

	t.Run("price drop is reported with old and new price", func(t *testing.T) {
		t.Parallel()
		repo, _, source, _, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")

		source.setPrice(p.URL, "19.99")
		if _, err := uc.CheckAndNotify(context.Background(), p); err != nil {
			t.Fatalf("adopting poll failed: %v", err)
		}

		source.setPrice(p.URL, "18.50")
		change, err := uc.CheckAndNotify(context.Background(), p)
		if err != nil {
			t.Fatalf("CheckAndNotify failed: %v", err)
		}
		if change == nil {
			t.Fatal("expected a price change")
		}
		if !change.OldPrice.Equal(mustDecimal("19.99")) || !change.NewPrice.Equal(mustDecimal("18.50")) {
			t.Errorf("expected change 19.99 -> 18.50, got %s -> %s", change.OldPrice, change.NewPrice)
		}
		if !change.Dropped() {
			t.Error("19.99 -> 18.50 must count as a drop")
		}

		stored, _ := repo.FindByID(context.Background(), nil, p.ID)
		if !stored.LastPrice.Decimal.Equal(mustDecimal("18.50")) {
			t.Errorf("stored price not updated, got %s", stored.LastPrice.Decimal)
		}
	})

	t.Run("unchanged price reports nothing but refreshes the check time", func(t *testing.T) {
		t.Parallel()
		repo, history, source, _, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")
		source.setPrice(p.URL, "19.99")

		if _, err := uc.CheckAndNotify(context.Background(), p); err != nil {
			t.Fatalf("adopting poll failed: %v", err)
		}
		change, err := uc.CheckAndNotify(context.Background(), p)
		if err != nil {
			t.Fatalf("CheckAndNotify failed: %v", err)
		}
		if change != nil {
			t.Errorf("same price must not report a change, got %+v", change)
		}

		stored, _ := repo.FindByID(context.Background(), nil, p.ID)
		if stored.LastCheckedAt.IsZero() {
			t.Error("LastCheckedAt must be set after a poll")
		}
		if len(history.points) != 2 {
			t.Errorf("every observation is recorded, expected 2 points, got %d", len(history.points))
		}
	})

	t.Run("product removed mid-poll stays removed", func(t *testing.T) {
		t.Parallel()
		repo, history, source, notifier, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")
		source.setPrice(p.URL, "19.99")

		// Removal lands after the sweep picked up the product but
		// before its poll turn; the stale pointer must not write it
		// back.
		if err := repo.Delete(context.Background(), nil, 42, p.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		change, err := uc.CheckAndNotify(context.Background(), p)
		if err != nil {
			t.Fatalf("CheckAndNotify failed: %v", err)
		}
		if change != nil {
			t.Errorf("removed product must not report a change, got %+v", change)
		}
		if _, err := repo.FindByID(context.Background(), nil, p.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("removed product is back in the store (err=%v)", err)
		}
		if len(history.points) != 0 {
			t.Errorf("removed product got history, %d points", len(history.points))
		}
		if len(notifier.changes) != 0 {
			t.Errorf("removed product was notified, %d messages", len(notifier.changes))
		}
	})

	t.Run("fetch error surfaces without touching the product", func(t *testing.T) {
		t.Parallel()
		repo, history, source, _, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")
		source.setError(p.URL, domain.ErrFetchFailed)

		if _, err := uc.CheckAndNotify(context.Background(), p); !errors.Is(err, domain.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}

		stored, _ := repo.FindByID(context.Background(), nil, p.ID)
		if stored.LastPrice.Valid {
			t.Error("a failed poll must not record a price")
		}
		if len(history.points) != 0 {
			t.Errorf("a failed poll must not append history, got %d points", len(history.points))
		}
	})
}

func TestWatchUC_Sweep(t *testing.T) {
	t.Parallel()

	t.Run("one failing product does not stop the cycle", func(t *testing.T) {
		t.Parallel()
		repo, _, source, notifier, uc := newWatchFixture(t)
		broken := addProduct(t, repo, 42, "https://shop.example/p/broken")
		healthy := addProduct(t, repo, 42, "https://shop.example/p/healthy")

		source.setError(broken.URL, domain.ErrFetchFailed)
		source.setPrice(healthy.URL, "9.95")

		res, err := uc.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if res.Checked != 2 || res.Failed != 1 {
			t.Errorf("expected checked=2 failed=1, got %+v", res)
		}

		stored, _ := repo.FindByID(context.Background(), nil, healthy.ID)
		if !stored.LastPrice.Valid {
			t.Error("healthy product was not polled after the broken one")
		}
		if len(notifier.changes) != 0 {
			t.Errorf("first observations must not notify, got %d messages", len(notifier.changes))
		}
	})

	t.Run("changes are delivered to the owning chat", func(t *testing.T) {
		t.Parallel()
		repo, _, source, notifier, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")

		source.setPrice(p.URL, "100.00")
		if _, err := uc.Sweep(context.Background()); err != nil {
			t.Fatalf("adopting sweep failed: %v", err)
		}

		source.setPrice(p.URL, "120.00")
		res, err := uc.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if res.Changed != 1 || res.Notified != 1 {
			t.Errorf("expected changed=1 notified=1, got %+v", res)
		}
		if len(notifier.changes) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifier.changes))
		}
		change := notifier.changes[0]
		if change.Product.OwnerChatID != 42 {
			t.Errorf("notification routed to chat %d, want 42", change.Product.OwnerChatID)
		}
		if change.Dropped() {
			t.Error("100.00 -> 120.00 is a raise, not a drop")
		}
	})

	t.Run("notify failure counts but does not abort", func(t *testing.T) {
		t.Parallel()
		repo, _, source, notifier, uc := newWatchFixture(t)
		p := addProduct(t, repo, 42, "https://shop.example/p/1")

		source.setPrice(p.URL, "10.00")
		if _, err := uc.Sweep(context.Background()); err != nil {
			t.Fatalf("adopting sweep failed: %v", err)
		}

		notifier.err = errors.New("telegram unreachable")
		source.setPrice(p.URL, "8.00")
		res, err := uc.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if res.Changed != 1 || res.Notified != 0 {
			t.Errorf("expected changed=1 notified=0, got %+v", res)
		}

		// The price is persisted regardless, so the next cycle stays quiet.
		stored, _ := repo.FindByID(context.Background(), nil, p.ID)
		if !stored.LastPrice.Decimal.Equal(mustDecimal("8.00")) {
			t.Errorf("price not persisted after notify failure, got %s", stored.LastPrice.Decimal)
		}
	})

	t.Run("empty store sweeps cleanly", func(t *testing.T) {
		t.Parallel()
		_, _, _, _, uc := newWatchFixture(t)
		res, err := uc.Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if res.Checked != 0 {
			t.Errorf("expected nothing checked, got %+v", res)
		}
	})
}

func TestWatchUC_PruneHistory(t *testing.T) {
	t.Parallel()

	repo, history, source, _, uc := newWatchFixture(t)
	p := addProduct(t, repo, 42, "https://shop.example/p/1")
	source.setPrice(p.URL, "5.00")
	if _, err := uc.CheckAndNotify(context.Background(), p); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	// Fresh points survive a 24h retention window.
	removed, err := uc.PruneHistory(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if removed != 0 || len(history.points) != 1 {
		t.Errorf("fresh history pruned: removed=%d left=%d", removed, len(history.points))
	}

	// A zero retention window drops everything older than now.
	removed, err = uc.PruneHistory(context.Background(), 0)
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if removed != 1 || len(history.points) != 0 {
		t.Errorf("expected full prune, removed=%d left=%d", removed, len(history.points))
	}
}
