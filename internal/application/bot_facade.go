package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Facade methods return the strings the Telegram adapter forwards to the
// chat, so all user-facing wording lives in one place.
type BotFacade struct {
	ProductUC usecase.ProductUseCase
	WatchUC   usecase.WatchUseCase
	StatsUC   usecase.StatsUseCase
}

func NewBotFacade(productUC usecase.ProductUseCase, watchUC usecase.WatchUseCase, statsUC usecase.StatsUseCase) *BotFacade {
	return &BotFacade{
		ProductUC: productUC,
		WatchUC:   watchUC,
		StatsUC:   statsUC,
	}
}

const helpText = `I watch product pages and message you when a price changes.

Commands:
/add <url> - start watching a product page
/list - show your watched products
/remove - pick a product to stop watching
/remove <id> - stop watching directly
/help - show this message

Send /add with a product URL and I'll take it from there.`

func (b *BotFacade) HandleStart(ctx context.Context) string {
	return "Welcome to the price watch bot!\n\n" + helpText
}

func (b *BotFacade) HandleHelp(ctx context.Context) string {
	return helpText
}

// HandleAdd registers the URL and runs the first poll right away so the
// user sees the product name and current price. A failed first poll keeps
// the product registered; the watcher picks it up next cycle.
func (b *BotFacade) HandleAdd(ctx context.Context, chatID int64, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "Please provide a product URL.\nExample: /add https://www.example.com/product-page", nil
	}

	p, err := b.ProductUC.Add(ctx, chatID, rawURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidURL):
			return "That doesn't look like a valid product URL.", nil
		case errors.Is(err, domain.ErrAlreadyTracked):
			return "You're already watching this product.", nil
		default:
			return "", fmt.Errorf("add product: %w", err)
		}
	}

	if _, err := b.WatchUC.CheckAndNotify(ctx, p); err != nil {
		if errors.Is(err, domain.ErrFetchFailed) || errors.Is(err, domain.ErrPriceNotFound) {
			return fmt.Sprintf("Added %s to your watch list, but I couldn't fetch the page yet. "+
				"I'll keep trying on the regular schedule.", p.URL), nil
		}
		return "", fmt.Errorf("first poll: %w", err)
	}

	return fmt.Sprintf("Now watching:\n%s\nCurrent price: %s\nI'll message you when the price changes.",
		p.Name, FormatPrice(p.Currency, p.LastPrice.Decimal)), nil
}

func (b *BotFacade) HandleList(ctx context.Context, chatID int64) (string, error) {
	ps, err := b.ProductUC.List(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	if len(ps) == 0 {
		return "You're not watching any products. Add one with /add <url>.", nil
	}

	sb := strings.Builder{}
	sb.WriteString("Your watched products:\n\n")
	for _, p := range ps {
		name := p.Name
		if name == "" {
			name = "(not fetched yet)"
		}
		sb.WriteString(name + "\n")
		if p.LastPrice.Valid {
			sb.WriteString("Last price: " + FormatPrice(p.Currency, p.LastPrice.Decimal) + "\n")
		}
		sb.WriteString(p.URL + "\n")
		sb.WriteString("id: " + p.ID + "\n\n")
	}
	return sb.String(), nil
}

// HandleRemove removes a product by id for the chat.
func (b *BotFacade) HandleRemove(ctx context.Context, chatID int64, id string) (string, error) {
	if err := b.ProductUC.Remove(ctx, chatID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "I couldn't find that product in your watch list.", nil
		}
		return "", fmt.Errorf("remove product: %w", err)
	}
	return "Removed. You won't get messages for this product anymore.", nil
}

// RemoveCandidates lists the chat's products for the inline removal menu.
func (b *BotFacade) RemoveCandidates(ctx context.Context, chatID int64) ([]*model.TrackedProduct, error) {
	return b.ProductUC.List(ctx, chatID)
}

// BuildPriceAlert renders the one message sent per detected change.
func BuildPriceAlert(c model.PriceChange) string {
	p := c.Product
	name := p.Name
	if name == "" {
		name = p.URL
	}

	arrow := "⬆" // up
	if c.Dropped() {
		arrow = "⬇" // down
	}
	return fmt.Sprintf("Price change!\n\n%s\nOld price: %s\nNew price: %s\nChange: %s %s (%s%%)\n\n%s",
		name,
		FormatPrice(p.Currency, c.OldPrice),
		FormatPrice(p.Currency, c.NewPrice),
		arrow,
		FormatPrice(p.Currency, c.Delta().Abs()),
		c.DeltaPercent().StringFixed(1),
		p.URL,
	)
}
