package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	red "telegram-price-watch/internal/infra/redis"
)

const removeCallbackPrefix = "rm:"

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)

	if r.rateLimiter != nil {
		if allowed, err := r.rateLimiter.Allow(ctx, red.ChatCommandKey(chatID, "cb:"+data), 30, time.Minute); err == nil && !allowed {
			return r.SendMessage(ctx, chatID, "Slow down a little, please. Try again in a minute.")
		}
	}

	if id, ok := strings.CutPrefix(data, removeCallbackPrefix); ok {
		return r.handleRemoveCallback(ctx, query, chatID, id)
	}
	return errors.New("unknown callback data: " + data)
}

func (r *RealTelegramBotAdapter) handleRemoveCallback(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64, id string) error {
	text, err := r.facade.HandleRemove(ctx, chatID, id)
	if err != nil {
		text = "Sorry, something went wrong. Please try again."
	}

	// Replace the menu with the outcome so the buttons can't be reused.
	if query.Message != nil {
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, text)
		if _, err := r.bot.Send(edit); err == nil {
			return nil
		}
	}
	return r.SendMessage(ctx, chatID, text)
}
