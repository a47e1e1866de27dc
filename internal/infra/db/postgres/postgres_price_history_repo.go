package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PriceHistoryRepository = (*PostgresPriceHistoryRepo)(nil)

type PostgresPriceHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPriceHistoryRepo(pool *pgxpool.Pool) *PostgresPriceHistoryRepo {
	return &PostgresPriceHistoryRepo{pool: pool}
}

func (r *PostgresPriceHistoryRepo) Append(ctx context.Context, tx repository.Tx, point model.PricePoint) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx,
		`INSERT INTO price_history (product_id, price, observed_at) VALUES ($1, $2::numeric, $3);`,
		point.ProductID, point.Price.String(), point.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("append price point: %w", err)
	}
	return nil
}

func (r *PostgresPriceHistoryRepo) ListByProduct(ctx context.Context, tx repository.Tx, productID string, limit int) ([]model.PricePoint, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	sql := `SELECT product_id, price::text, observed_at FROM price_history WHERE product_id = $1 ORDER BY observed_at DESC`
	args := []interface{}{productID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := ex.Query(ctx, sql+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var (
			pt    model.PricePoint
			price string
		)
		if err := rows.Scan(&pt.ProductID, &price, &pt.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse stored price %q: %w", price, err)
		}
		pt.Price = d
		points = append(points, pt)
	}
	return points, rows.Err()
}

func (r *PostgresPriceHistoryRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM price_history WHERE observed_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune price history: %w", err)
	}
	return tag.RowsAffected(), nil
}
