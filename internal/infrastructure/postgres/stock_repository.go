package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetBySKU obtiene el stock item local por SKU.
func (r *StockRepo) GetBySKU(ctx context.Context, sku string) (*entity.StockItem, error) {
	query := `
		SELECT id, product_id, sku, count_on_hand, count_on_hold, updated_at
		FROM stock_items WHERE sku = $1`
	var s entity.StockItem
	err := r.q.QueryRow(ctx, query, sku).Scan(
		&s.ID, &s.ProductID, &s.SKU, &s.CountOnHand, &s.CountOnHold, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock item %s: %w", sku, err)
	}
	return &s, nil
}

// UpdateLevels escribe ambos niveles del SKU en una sola sentencia.
func (r *StockRepo) UpdateLevels(ctx context.Context, sku string, countOnHold, countOnHand int) error {
	query := `
		UPDATE stock_items
		SET count_on_hold = $2, count_on_hand = $3, updated_at = now()
		WHERE sku = $1`
	tag, err := r.q.Exec(ctx, query, sku, countOnHold, countOnHand)
	if err != nil {
		return fmt.Errorf("update niveles de %s: %w", sku, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
