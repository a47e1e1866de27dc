package usecase

import (
	"context"

	"telegram-price-watch/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase aggregates counts for the admin API.
type StatsUseCase interface {
	Overview(ctx context.Context) (Stats, error)
}

type Stats struct {
	TrackedProducts int `json:"tracked_products"`
	Owners          int `json:"owners"`
}

type statsUC struct {
	products repository.ProductRepository
}

func NewStatsUseCase(products repository.ProductRepository) *statsUC {
	return &statsUC{products: products}
}

func (uc *statsUC) Overview(ctx context.Context) (Stats, error) {
	var s Stats
	n, err := uc.products.CountProducts(ctx, repository.NoTX)
	if err != nil {
		return s, err
	}
	s.TrackedProducts = n

	n, err = uc.products.CountOwners(ctx, repository.NoTX)
	if err != nil {
		return s, err
	}
	s.Owners = n
	return s, nil
}
