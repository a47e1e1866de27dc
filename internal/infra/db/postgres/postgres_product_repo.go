package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-price-watch/internal/domain"
	"telegram-price-watch/internal/domain/model"
	"telegram-price-watch/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.ProductRepository = (*PostgresProductRepo)(nil)

type PostgresProductRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepo(pool *pgxpool.Pool) *PostgresProductRepo {
	return &PostgresProductRepo{pool: pool}
}

// uniqueViolation is the Postgres error code raised by the
// (owner_chat_id, url) constraint.
const uniqueViolation = "23505"

func (r *PostgresProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.TrackedProduct) error {
	const sql = `
INSERT INTO products (id, owner_chat_id, url, name, last_price, currency, created_at, updated_at, last_checked_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
  SET name            = EXCLUDED.name,
      last_price      = EXCLUDED.last_price,
      currency        = EXCLUDED.currency,
      updated_at      = EXCLUDED.updated_at,
      last_checked_at = EXCLUDED.last_checked_at;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, sql,
		p.ID, p.OwnerChatID, p.URL, p.Name, nullPriceArg(p.LastPrice), p.Currency,
		p.CreatedAt, p.UpdatedAt, nullTimeArg(p.LastCheckedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyTracked
		}
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// Update never inserts: a product deleted between ListAll and its poll
// turn must not be resurrected by the sweep.
func (r *PostgresProductRepo) Update(ctx context.Context, tx repository.Tx, p *model.TrackedProduct) error {
	const sql = `
UPDATE products
   SET name            = $2,
       last_price      = $3::numeric,
       currency        = $4,
       updated_at      = $5,
       last_checked_at = $6
 WHERE id = $1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, sql,
		p.ID, p.Name, nullPriceArg(p.LastPrice), p.Currency, p.UpdatedAt, nullTimeArg(p.LastCheckedAt),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresProductRepo) Delete(ctx context.Context, tx repository.Tx, ownerChatID int64, id string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM products WHERE id = $1 AND owner_chat_id = $2;`, id, ownerChatID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const productColumns = `
id, owner_chat_id, url, name, last_price::text, currency, created_at, updated_at, last_checked_at`

func (r *PostgresProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TrackedProduct, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1;`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

func (r *PostgresProductRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerChatID int64) ([]*model.TrackedProduct, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_chat_id = $1 ORDER BY created_at;`, ownerChatID)
	if err != nil {
		return nil, fmt.Errorf("list products by owner: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.TrackedProduct, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at;`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresProductRepo) CountProducts(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM products;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *PostgresProductRepo) CountOwners(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(DISTINCT owner_chat_id) FROM products;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}

func scanProduct(row pgx.Row) (*model.TrackedProduct, error) {
	var (
		p         model.TrackedProduct
		price     *string
		checkedAt *time.Time
	)
	if err := row.Scan(&p.ID, &p.OwnerChatID, &p.URL, &p.Name, &price, &p.Currency,
		&p.CreatedAt, &p.UpdatedAt, &checkedAt); err != nil {
		return nil, err
	}
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return nil, fmt.Errorf("parse stored price %q: %w", *price, err)
		}
		p.LastPrice = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if checkedAt != nil {
		p.LastCheckedAt = *checkedAt
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]*model.TrackedProduct, error) {
	var ps []*model.TrackedProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// nullPriceArg renders a NullDecimal as a nullable numeric literal.
func nullPriceArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func nullTimeArg(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
