package usecase

import (
	"context"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/adapter"
	"telegram-price-watch/internal/domain/ports/repository"
)

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

// ProductUseCase manages the tracked products of a chat.
type ProductUseCase interface {
	// Add validates rawURL and creates a product in the NEW state (no
	// known price yet). Fails with domain.ErrInvalidURL on a malformed
	// URL — no record is created then — and domain.ErrAlreadyTracked
	// when the chat already tracks the same page.
	Add(ctx context.Context, ownerChatID int64, rawURL string) (*model.TrackedProduct, error)
	// Remove deletes one of the chat's products. domain.ErrNotFound when
	// the id is unknown or belongs to a different chat.
	Remove(ctx context.Context, ownerChatID int64, id string) error
	List(ctx context.Context, ownerChatID int64) ([]*model.TrackedProduct, error)
	Get(ctx context.Context, ownerChatID int64, id string) (*model.TrackedProduct, error)
}

type productUC struct {
	products repository.ProductRepository
	cache    adapter.SampleInvalidator // may be nil
}

func NewProductUseCase(products repository.ProductRepository, cache adapter.SampleInvalidator) *productUC {
	return &productUC{products: products, cache: cache}
}

func (uc *productUC) Add(ctx context.Context, ownerChatID int64, rawURL string) (*model.TrackedProduct, error) {
	p, err := model.NewTrackedProduct(ownerChatID, rawURL)
	if err != nil {
		return nil, err
	}
	if err := uc.products.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *productUC) Remove(ctx context.Context, ownerChatID int64, id string) error {
	p, err := uc.Get(ctx, ownerChatID, id)
	if err != nil {
		return err
	}
	if err := uc.products.Delete(ctx, repository.NoTX, ownerChatID, id); err != nil {
		return err
	}
	if uc.cache != nil {
		// Best effort: a stale cached sample only delays the next fetch.
		_ = uc.cache.Invalidate(ctx, p.URL)
	}
	return nil
}

func (uc *productUC) List(ctx context.Context, ownerChatID int64) ([]*model.TrackedProduct, error) {
	return uc.products.ListByOwner(ctx, repository.NoTX, ownerChatID)
}

func (uc *productUC) Get(ctx context.Context, ownerChatID int64, id string) (*model.TrackedProduct, error) {
	p, err := uc.products.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerChatID != ownerChatID {
		// Hide other chats' products instead of admitting they exist.
		return nil, domain.ErrNotFound
	}
	return p, nil
}
