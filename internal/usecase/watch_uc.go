package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
	"telegram-price-watch/internal/domain/ports/repository"
	"telegram-price-watch/internal/infra/logging"
	"telegram-price-watch/internal/infra/metrics"
)

// Compile-time check
var _ WatchUseCase = (*watchUC)(nil)

// WatchUseCase drives the poll cycle over all tracked products.
type WatchUseCase interface {
	// PollOnce fetches the product page and extracts the current price.
	// Fails with domain.ErrFetchFailed or domain.ErrPriceNotFound; both
	// are transient and handled by skipping until the next cycle.
	PollOnce(ctx context.Context, p *model.TrackedProduct) (model.PriceSample, error)
	// CheckAndNotify polls one product, persists the observation, and
	// returns the price change when the observed price differs from the
	// last known one. Returns (nil, nil) when nothing changed, when the
	// price was adopted for the first time, or when the product was
	// removed while the poll was in flight.
	CheckAndNotify(ctx context.Context, p *model.TrackedProduct) (*model.PriceChange, error)
	// Sweep runs one poll cycle over every tracked product, sequentially,
	// notifying owners of changes. Per-product failures never abort the
	// cycle.
	Sweep(ctx context.Context) (SweepResult, error)
	// PruneHistory drops price history older than the retention window.
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

type SweepResult struct {
	Checked  int
	Changed  int
	Failed   int
	Notified int
}

type watchUC struct {
	products repository.ProductRepository
	history  repository.PriceHistoryRepository
	tm       repository.TransactionManager
	source   adapter.PriceSource
	notifier adapter.ChangeNotifier

	productDelay time.Duration
	log          *zerolog.Logger
}

func NewWatchUseCase(
	products repository.ProductRepository,
	history repository.PriceHistoryRepository,
	tm repository.TransactionManager,
	source adapter.PriceSource,
	notifier adapter.ChangeNotifier,
	productDelay time.Duration,
	logger *zerolog.Logger,
) *watchUC {
	ucLog := logger.With().Str("component", "WatchUC").Logger()
	return &watchUC{
		products:     products,
		history:      history,
		tm:           tm,
		source:       source,
		notifier:     notifier,
		productDelay: productDelay,
		log:          &ucLog,
	}
}

func (uc *watchUC) PollOnce(ctx context.Context, p *model.TrackedProduct) (model.PriceSample, error) {
	return uc.source.Fetch(ctx, p.URL)
}

func (uc *watchUC) CheckAndNotify(ctx context.Context, p *model.TrackedProduct) (*model.PriceChange, error) {
	sample, err := uc.PollOnce(ctx, p)
	if err != nil {
		return nil, err
	}

	oldPrice := p.LastPrice.Decimal
	changed := p.ObservePrice(sample)

	err = uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Update, not Save: an upsert would resurrect a product the
		// user removed after this sweep listed it.
		if err := uc.products.Update(ctx, tx, p); err != nil {
			return err
		}
		return uc.history.Append(ctx, tx, model.PricePoint{
			ProductID:  p.ID,
			Price:      sample.Price,
			ObservedAt: sample.ObservedAt,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Debug().Str("product_id", p.ID).Msg("product removed mid-poll, observation dropped")
			return nil, nil
		}
		return nil, err
	}

	if !changed {
		return nil, nil
	}
	return &model.PriceChange{
		Product:  p,
		OldPrice: oldPrice,
		NewPrice: sample.Price,
	}, nil
}

func (uc *watchUC) Sweep(ctx context.Context) (SweepResult, error) {
	defer logging.TraceDuration(uc.log, "WatchUC.Sweep")()
	var res SweepResult

	ps, err := uc.products.ListAll(ctx, repository.NoTX)
	if err != nil {
		return res, err
	}
	metrics.SetProductsTracked(len(ps))
	uc.log.Info().Int("products", len(ps)).Msg("starting poll cycle")

	for i, p := range ps {
		if i > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(uc.productDelay):
			}
		}

		res.Checked++
		pctx := logging.WithProductID(ctx, p.ID)
		change, err := uc.CheckAndNotify(pctx, p)
		if err != nil {
			res.Failed++
			metrics.IncPoll(pollOutcome(err))
			logging.With(pctx, uc.log).Warn().Err(err).
				Str("url", p.URL).
				Msg("poll failed, will retry next cycle")
			continue
		}
		metrics.IncPoll("ok")
		if change == nil {
			continue
		}

		res.Changed++
		metrics.IncPriceChange(change.Dropped())
		logging.With(pctx, uc.log).Info().
			Str("old_price", change.OldPrice.String()).
			Str("new_price", change.NewPrice.String()).
			Msg("price change detected")

		if err := uc.notifier.NotifyPriceChange(pctx, *change); err != nil {
			metrics.IncNotifyError()
			logging.With(pctx, uc.log).Error().Err(err).
				Int64("chat_id", p.OwnerChatID).
				Msg("failed to deliver price change message")
			continue
		}
		res.Notified++
	}

	metrics.IncSweeps()
	uc.log.Info().
		Int("checked", res.Checked).
		Int("changed", res.Changed).
		Int("failed", res.Failed).
		Msg("poll cycle finished")
	return res, nil
}

func (uc *watchUC) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	return uc.history.DeleteOlderThan(ctx, repository.NoTX, time.Now().Add(-retention))
}

func pollOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrFetchFailed):
		return "fetch_error"
	case errors.Is(err, domain.ErrPriceNotFound):
		return "parse_error"
	default:
		return "store_error"
	}
}
