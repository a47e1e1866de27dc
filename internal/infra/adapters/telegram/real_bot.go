package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-price-watch/internal/application"
	"telegram-price-watch/internal/config"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
	"telegram-price-watch/internal/infra/logging"
	"telegram-price-watch/internal/infra/metrics"
	red "telegram-price-watch/internal/infra/redis"
)

// Ensure interface compliance
var (
	_ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)
	_ adapter.ChangeNotifier     = (*RealTelegramBotAdapter)(nil)
)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		log:           &botLog,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message != nil {
		ctx = logging.WithChatID(ctx, update.Message.Chat.ID)
	}
	switch {
	case update.CallbackQuery != nil:
		return r.handleQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		return r.handleCommand(ctx, update.Message)
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		// Bare URLs are treated as an /add, like the original bot did.
		if looksLikeURL(update.Message.Text) {
			return r.handleAdd(ctx, update.Message.Chat.ID, strings.TrimSpace(update.Message.Text))
		}
		return r.SendMessage(ctx, update.Message.Chat.ID, "Send /help to see what I can do.")
	default:
		return nil
	}
}

func (r *RealTelegramBotAdapter) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	cmd := message.Command()
	fn, ok := r.commandRoutes()[cmd]
	if !ok {
		metrics.IncBotCommand(cmd, "user_error")
		return r.SendMessage(ctx, message.Chat.ID, "Unknown command. Send /help to see what I can do.")
	}

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.ChatCommandKey(message.Chat.ID, cmd), 20, time.Minute)
		if err == nil && !allowed {
			metrics.IncBotCommand(cmd, "rate_limited")
			return r.SendMessage(ctx, message.Chat.ID, "Slow down a little, please. Try again in a minute.")
		}
	}

	if err := fn(ctx, message); err != nil {
		metrics.IncBotCommand(cmd, "error")
		logging.With(ctx, r.log).Error().Err(err).Str("command", cmd).Msg("command failed")
		return r.SendMessage(ctx, message.Chat.ID, "Sorry, something went wrong. Please try again.")
	}
	metrics.IncBotCommand(cmd, "ok")
	return nil
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncBotSendError()
		return err
	}
	return nil
}

func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncBotSendError()
		return err
	}
	return nil
}

// NotifyPriceChange delivers the single message per detected change to the
// owning chat.
func (r *RealTelegramBotAdapter) NotifyPriceChange(ctx context.Context, change model.PriceChange) error {
	return r.SendMessage(ctx, change.Product.OwnerChatID, application.BuildPriceAlert(change))
}

func looksLikeURL(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}
