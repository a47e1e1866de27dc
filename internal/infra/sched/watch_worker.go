package sched

import (
	"context"
	"math/rand"
	"time"

	"telegram-price-watch/internal/usecase"

	"github.com/rs/zerolog"
)

// WatchWorker runs the poll cycle over all tracked products on a fixed
// interval, with a little jitter so sweeps don't land on the retailer at
// the exact same second every hour.
type WatchWorker struct {
	interval  time.Duration
	retention time.Duration
	watchUC   usecase.WatchUseCase
	log       *zerolog.Logger
}

func NewWatchWorker(interval, retention time.Duration, watchUC usecase.WatchUseCase, logger *zerolog.Logger) *WatchWorker {
	compLog := logger.With().Str("component", "WatchWorker").Logger()
	return &WatchWorker{
		interval:  interval,
		retention: retention,
		watchUC:   watchUC,
		log:       &compLog,
	}
}

func (w *WatchWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting watch worker")
	// Run once on startup, then on every tick
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping watch worker")
			return ctx.Err()
		case <-ticker.C:
			select {
			case <-ctx.Done():
				w.log.Info().Msg("Stopping watch worker")
				return ctx.Err()
			case <-time.After(w.jitter()):
			}
			w.runSweep(ctx)
		}
	}
}

func (w *WatchWorker) runSweep(ctx context.Context) {
	res, err := w.watchUC.Sweep(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("poll cycle failed")
		return
	}
	if res.Changed > 0 {
		w.log.Info().Int("count", res.Notified).Msg("price change messages sent")
	}

	if w.retention > 0 {
		pruned, err := w.watchUC.PruneHistory(ctx, w.retention)
		if err != nil {
			w.log.Error().Err(err).Msg("history pruning failed")
		} else if pruned > 0 {
			w.log.Info().Int64("count", pruned).Msg("old price history rows pruned")
		}
	}
}

// jitter returns up to 10% of the interval.
func (w *WatchWorker) jitter() time.Duration {
	max := int64(w.interval / 10)
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(max))
}
