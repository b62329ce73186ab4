// Package reconcile implementa el motor de reconciliación: fusiona los
// snapshots del proveedor de fulfillment con la demanda local pendiente para
// producir niveles de stock y estados de orden correctos, sin oversell ni
// pérdida silenciosa de datos.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// InventoryReconciler corrige los niveles locales de stock a partir de un lote
// de snapshots remotos, ajustados por la demanda de órdenes aún no sincronizadas.
//
// Racional: una orden local colocada después de que el proveedor tomó su
// snapshot ya reservó stock localmente, pero el proveedor no la conoce todavía.
// Sumar esa demanda a count_on_hold y restarla de count_on_hand cierra la
// ventana transitoria en la que un pull "devolvería" stock ya comprometido.
type InventoryReconciler struct {
	stockRepo repository.StockRepository
	orderRepo repository.OrderRepository
	alerter   Alerter
	log       *logger.Logger
}

// NewInventoryReconciler construye el motor de inventario.
func NewInventoryReconciler(
	stockRepo repository.StockRepository,
	orderRepo repository.OrderRepository,
	alerter Alerter,
	log *logger.Logger,
) *InventoryReconciler {
	return &InventoryReconciler{
		stockRepo: stockRepo,
		orderRepo: orderRepo,
		alerter:   alerter,
		log:       log,
	}
}

// InventorySummary contadores de una corrida de inventario.
type InventorySummary struct {
	Processed int // registros escritos
	Skipped   int // sin variante local o sin cambios (fast path)
	Alerts    int // alertas de out-of-stock emitidas
}

// Reconcile aplica un lote de snapshots remotos sobre los stock items locales.
//
// La demanda no sincronizada se calcula UNA vez por lote sobre todas las
// órdenes con posted_to_remote = false (O(órdenes + SKUs), no O(órdenes×SKUs)).
// Las órdenes colocadas después de ese corte se reconcilian en el siguiente
// ciclo: ventana de consistencia eventual aceptada.
func (r *InventoryReconciler) Reconcile(ctx context.Context, snapshots []entity.RemoteStock) (*InventorySummary, error) {
	demand, err := r.unsyncedDemand(ctx)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{}
	for _, snap := range snapshots {
		item, err := r.stockRepo.GetBySKU(ctx, snap.SKU)
		if errors.Is(err, domain.ErrNotFound) {
			// SKU no provisionado localmente: informativo, no es un error.
			r.log.Debug().Str("sku", snap.SKU).Msg("sku sin variante local, omitido")
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("stock item %s: %w", snap.SKU, err)
		}
		if item.SameLevels(snap.PendingQuantity, snap.AvailableQuantity) {
			summary.Skipped++
			continue
		}

		unsynced := demand[snap.SKU]
		newOnHold := snap.PendingQuantity + unsynced
		newOnHand := snap.AvailableQuantity - unsynced

		r.log.Info().
			Str("sku", snap.SKU).
			Int("on_hold_local", item.CountOnHold).
			Int("on_hold_remoto", snap.PendingQuantity).
			Int("on_hand_local", item.CountOnHand).
			Int("on_hand_remoto", snap.AvailableQuantity).
			Int("demanda_no_sincronizada", unsynced).
			Msg("niveles divergentes, reconciliando")

		if snap.AvailableQuantity < 0 || newOnHand < 0 {
			summary.Alerts++
			msg := fmt.Sprintf("Out of stock: sku %s quedaría con count_on_hand %d (remoto disponible %d, demanda no sincronizada %d)",
				snap.SKU, newOnHand, snap.AvailableQuantity, unsynced)
			if !r.alerter.Notify(msg) {
				r.log.Error().Str("sku", snap.SKU).Msg("CRITICAL: no se pudo enviar la alerta, revisar configuración del canal")
			}
		}

		// Ambos campos en un solo UPDATE: ningún lector ve un campo sin el otro.
		if err := r.stockRepo.UpdateLevels(ctx, snap.SKU, newOnHold, newOnHand); err != nil {
			return summary, fmt.Errorf("actualizar niveles de %s: %w", snap.SKU, err)
		}
		summary.Processed++
	}
	return summary, nil
}

// unsyncedDemand suma las cantidades de los line items de todas las órdenes no
// sincronizadas, agrupadas por SKU. Snapshot consistente tomado al inicio del lote.
func (r *InventoryReconciler) unsyncedDemand(ctx context.Context) (map[string]int, error) {
	items, err := r.orderRepo.ListUnsyncedLineItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar line items no sincronizados: %w", err)
	}
	demand := make(map[string]int, len(items))
	for _, li := range items {
		demand[li.SKU] += li.Quantity
	}
	return demand, nil
}
