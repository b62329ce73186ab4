package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// StockRepository define el puerto de persistencia para StockItem (DIP).
// La escritura de niveles es siempre de ambos campos juntos: ningún lector debe
// observar count_on_hand actualizado sin count_on_hold para el mismo SKU.
type StockRepository interface {
	GetBySKU(ctx context.Context, sku string) (*entity.StockItem, error)
	// UpdateLevels escribe count_on_hold y count_on_hand en un solo UPDATE y
	// toca updated_at del producto asociado (invalidación de caché).
	UpdateLevels(ctx context.Context, sku string, countOnHold, countOnHand int) error
}
