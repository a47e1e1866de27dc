package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-price-watch/internal/application"
	"telegram-price-watch/internal/domain/ports/adapter"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":  r.handleStartCommand,
		"help":   r.handleHelpCommand,
		"add":    r.handleAddCommand,
		"list":   r.handleListCommand,
		"remove": r.handleRemoveCommand,
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.facade.HandleStart(ctx))
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID, r.facade.HandleHelp(ctx))
}

func (r *RealTelegramBotAdapter) handleAddCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.handleAdd(ctx, message.Chat.ID, strings.TrimSpace(message.CommandArguments()))
}

func (r *RealTelegramBotAdapter) handleAdd(ctx context.Context, chatID int64, rawURL string) error {
	if rawURL != "" {
		// Fetching the page can take a few seconds; acknowledge first.
		_ = r.SendMessage(ctx, chatID, "Fetching product information...")
	}
	text, err := r.facade.HandleAdd(ctx, chatID, rawURL)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, chatID, text)
}

func (r *RealTelegramBotAdapter) handleListCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleList(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

// handleRemoveCommand removes directly when an id is given; otherwise it
// shows the inline removal menu.
func (r *RealTelegramBotAdapter) handleRemoveCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if id := strings.TrimSpace(message.CommandArguments()); id != "" {
		text, err := r.facade.HandleRemove(ctx, chatID, id)
		if err != nil {
			return err
		}
		return r.SendMessage(ctx, chatID, text)
	}

	ps, err := r.facade.RemoveCandidates(ctx, chatID)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		return r.SendMessage(ctx, chatID, "You have no products to remove.")
	}

	var rows [][]adapter.InlineButton
	for _, p := range ps {
		label := p.Name
		if label == "" {
			label = p.URL
		}
		if p.LastPrice.Valid {
			label += " (" + application.FormatPrice(p.Currency, p.LastPrice.Decimal) + ")"
		}
		rows = append(rows, []adapter.InlineButton{{Text: label, Data: removeCallbackPrefix + p.ID}})
	}
	return r.SendButtons(ctx, chatID, "Select a product to remove:", rows)
}
