package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fulfillment-sync/internal/application/orders"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// ReturnsReconciler crea las autorizaciones de devolución (RMA) locales a
// partir del feed de returns del proveedor y espeja el estado remoto.
type ReturnsReconciler struct {
	orderRepo repository.OrderRepository
	orders    *orders.Service
	log       *logger.Logger
}

// NewReturnsReconciler construye el motor de devoluciones.
func NewReturnsReconciler(orderRepo repository.OrderRepository, orderSvc *orders.Service, log *logger.Logger) *ReturnsReconciler {
	return &ReturnsReconciler{orderRepo: orderRepo, orders: orderSvc, log: log}
}

// ReturnsSummary contadores de una corrida de returns.
type ReturnsSummary struct {
	Processed int
	Skipped   int
}

// Reconcile aplica un lote del feed de returns: por cada orden elegible crea el
// RMA con sus líneas, calcula el monto con los precios de la propia orden y lo
// marca recibido. El lote se indexa por número de orden antes de escribir.
func (r *ReturnsReconciler) Reconcile(ctx context.Context, records []entity.RemoteReturn) (*ReturnsSummary, error) {
	byNumber := make(map[string]entity.RemoteReturn, len(records))
	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		byNumber[rec.OrderNumber] = rec
		numbers = append(numbers, rec.OrderNumber)
	}

	orderList, err := r.orderRepo.ListByNumbers(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("cargar órdenes del lote de returns: %w", err)
	}

	ctx = orders.WithBatchMode(ctx)

	summary := &ReturnsSummary{}
	for _, order := range orderList {
		rec, ok := byNumber[order.Number]
		if !ok || !order.CanUpdateRemote() {
			summary.Skipped++
			continue
		}
		delete(byNumber, order.Number)

		if len(rec.Items) == 0 {
			summary.Skipped++
			continue
		}

		prices := priceBySKU(order)
		rma := &entity.ReturnAuthorization{
			OrderID: order.ID,
			Reason:  rec.Reason,
			State:   entity.ReturnStateReceived,
			Amount:  decimal.Zero,
		}
		for _, item := range rec.Items {
			price, ok := prices[item.SKU]
			if !ok {
				// SKU devuelto que no está en la orden: informativo.
				r.log.Info().Str("orden", order.Number).Str("sku", item.SKU).Msg("sku del return no pertenece a la orden")
				continue
			}
			rma.Items = append(rma.Items, entity.ReturnItem{SKU: item.SKU, Quantity: item.QtyReturned})
			rma.Amount = rma.Amount.Add(price.Mul(decimal.NewFromInt(int64(item.QtyReturned))))
		}
		if len(rma.Items) == 0 {
			summary.Skipped++
			continue
		}

		if err := r.orderRepo.CreateReturn(ctx, rma); err != nil {
			return summary, fmt.Errorf("crear RMA para orden %s: %w", order.Number, err)
		}
		if err := r.orders.UpdateRemoteStatus(ctx, order, rec.Status); err != nil {
			return summary, err
		}
		summary.Processed++
	}
	return summary, nil
}

// priceBySKU precios unitarios de la orden, indexados por SKU.
func priceBySKU(order *entity.Order) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(order.LineItems))
	for _, li := range order.LineItems {
		prices[li.SKU] = li.Price
	}
	return prices
}
