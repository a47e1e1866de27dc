package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"telegram-price-watch/internal/application"
	"telegram-price-watch/internal/config"
	tele "telegram-price-watch/internal/infra/adapters/telegram"
	pg "telegram-price-watch/internal/infra/db/postgres"
	"telegram-price-watch/internal/infra/logging"
	"telegram-price-watch/internal/infra/metrics"
	red "telegram-price-watch/internal/infra/redis"
	"telegram-price-watch/internal/infra/sched"
	"telegram-price-watch/internal/infra/scraper"
	"telegram-price-watch/internal/infra/web"
	"telegram-price-watch/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop-friendly)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = redisClient.Close() }()
	rateLimiter := red.NewRateLimiter(redisClient)
	sampleCache := red.NewSampleCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	productRepo := pg.NewPostgresProductRepo(pool)
	historyRepo := pg.NewPostgresPriceHistoryRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Price source ----
	httpClient := scraper.NewHTTPClient(cfg.Watch.FetchTimeout, nil)
	fetchLimiter := rate.NewLimiter(rate.Limit(cfg.Watch.RatePerSecond), cfg.Watch.RateBurst)
	source := scraper.NewSource(httpClient, fetchLimiter, sampleCache, logger)

	// ---- Use cases ----
	productUC := usecase.NewProductUseCase(productRepo, sampleCache)
	statsUC := usecase.NewStatsUseCase(productRepo)

	// ---- Telegram ----
	// The watch usecase needs the notifier and the bot needs the facade,
	// which needs the watch usecase; the notifier reference is filled in
	// after the bot is constructed.
	var notifier notifierRef
	watchUC := usecase.NewWatchUseCase(productRepo, historyRepo, txManager, source, &notifier, cfg.Watch.ProductDelay, logger)
	facade := application.NewBotFacade(productUC, watchUC, statsUC)

	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot init failed")
	}
	notifier.ChangeNotifier = botAdapter

	if strings.ToLower(cfg.Bot.Mode) == "webhook" {
		logger.Warn().Msg("bot.mode=webhook not implemented; falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Watch worker ----
	worker := sched.NewWatchWorker(cfg.Watch.Interval, cfg.Watch.HistoryRetention, watchUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Ops HTTP server ----
	srv := web.NewServer(statsUC, cfg.Admin.APIKey, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("ops http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
