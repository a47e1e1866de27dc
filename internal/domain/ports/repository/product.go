package repository

import (
	"context"

	"telegram-price-watch/internal/domain/model"
)

// -----------------------------
// Tracked products
// -----------------------------

type ProductRepository interface {
	// Save inserts a product or updates it in place. Inserting a product
	// with the same (owner, url) as an existing one fails with
	// domain.ErrAlreadyTracked.
	Save(ctx context.Context, tx Tx, p *model.TrackedProduct) error
	// Update rewrites an existing product in place and fails with
	// domain.ErrNotFound when the row is gone. The poll path uses this
	// instead of Save so a product removed mid-sweep stays removed.
	Update(ctx context.Context, tx Tx, p *model.TrackedProduct) error
	// Delete removes a product owned by ownerChatID. Fails with
	// domain.ErrNotFound when the id does not exist or belongs to another
	// chat; the store is left unchanged in that case.
	Delete(ctx context.Context, tx Tx, ownerChatID int64, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.TrackedProduct, error)
	// ListByOwner returns the chat's products in creation order.
	ListByOwner(ctx context.Context, tx Tx, ownerChatID int64) ([]*model.TrackedProduct, error)
	// ListAll returns every tracked product, for the sweep.
	ListAll(ctx context.Context, tx Tx) ([]*model.TrackedProduct, error)
	CountProducts(ctx context.Context, tx Tx) (int, error)
	CountOwners(ctx context.Context, tx Tx) (int, error)
}
