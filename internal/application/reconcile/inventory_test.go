package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

func newInventoryReconciler(stock *fakeStockRepo, orders *fakeOrderRepo, alerter *fakeAlerter) *reconcile.InventoryReconciler {
	return reconcile.NewInventoryReconciler(stock, orders, alerter, testLogger())
}

// Sin demanda no sincronizada, los niveles locales deben quedar como espejo
// exacto del snapshot remoto.
func TestInventoryReconcile_EspejoExactoSinDemanda(t *testing.T) {
	stock := newFakeStockRepo(&entity.StockItem{ID: "s1", SKU: "SKU-1", CountOnHold: 0, CountOnHand: 99})
	orders := newFakeOrderRepo()
	alerter := &fakeAlerter{delivery: true}
	rec := newInventoryReconciler(stock, orders, alerter)

	summary, err := rec.Reconcile(context.Background(), []entity.RemoteStock{
		{SKU: "SKU-1", PendingQuantity: 5, AvailableQuantity: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	require.Len(t, stock.updates, 1)
	assert.Equal(t, levelsUpdate{sku: "SKU-1", onHold: 5, onHand: 10}, stock.updates[0])
	assert.Empty(t, alerter.msgs, "sin niveles negativos no debe haber alertas")
}

// La demanda de órdenes aún no sincronizadas se suma a count_on_hold y se
// resta de count_on_hand.
func TestInventoryReconcile_AjustaPorDemandaNoSincronizada(t *testing.T) {
	stock := newFakeStockRepo(&entity.StockItem{ID: "s1", SKU: "SKU-1", CountOnHold: 0, CountOnHand: 0})
	orders := newFakeOrderRepo()
	orders.unsynced = []*entity.LineItem{
		{OrderID: "o1", SKU: "SKU-1", Quantity: 2},
		{OrderID: "o2", SKU: "SKU-1", Quantity: 1},
		{OrderID: "o2", SKU: "SKU-OTRO", Quantity: 7}, // no debe afectar a SKU-1
	}
	rec := newInventoryReconciler(stock, orders, &fakeAlerter{delivery: true})

	_, err := rec.Reconcile(context.Background(), []entity.RemoteStock{
		{SKU: "SKU-1", PendingQuantity: 5, AvailableQuantity: 10},
	})
	require.NoError(t, err)

	require.Len(t, stock.updates, 1)
	assert.Equal(t, 5+3, stock.updates[0].onHold, "on_hold = pendiente remoto + demanda")
	assert.Equal(t, 10-3, stock.updates[0].onHand, "on_hand = disponible remoto - demanda")
}

// Una segunda corrida con el mismo snapshot no debe escribir nada: los niveles
// ya coinciden y aplica el fast path.
func TestInventoryReconcile_SegundaCorridaSinEscrituras(t *testing.T) {
	stock := newFakeStockRepo(&entity.StockItem{ID: "s1", SKU: "SKU-1", CountOnHold: 1, CountOnHand: 1})
	orders := newFakeOrderRepo()
	rec := newInventoryReconciler(stock, orders, &fakeAlerter{delivery: true})

	batch := []entity.RemoteStock{{SKU: "SKU-1", PendingQuantity: 5, AvailableQuantity: 10}}

	first, err := rec.Reconcile(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, 1, first.Processed)

	second, err := rec.Reconcile(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, stock.updates, 1, "la segunda corrida no debe escribir")
}

// Nota: el fast path compara contra el snapshot crudo, así que solo aplica
// cuando la demanda no sincronizada no cambió entre corridas.
func TestInventoryReconcile_SkuSinVarianteLocalSeOmite(t *testing.T) {
	stock := newFakeStockRepo()
	rec := newInventoryReconciler(stock, newFakeOrderRepo(), &fakeAlerter{delivery: true})

	summary, err := rec.Reconcile(context.Background(), []entity.RemoteStock{
		{SKU: "NO-EXISTE", PendingQuantity: 1, AvailableQuantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, stock.updates)
}

// Un disponible remoto negativo, o un on_hand resultante negativo, emite
// exactamente una alerta por registro ofensor y aun así escribe los niveles.
func TestInventoryReconcile_AlertaPorRegistroNegativo(t *testing.T) {
	stock := newFakeStockRepo(
		&entity.StockItem{ID: "s1", SKU: "NEG-REMOTO", CountOnHand: 5},
		&entity.StockItem{ID: "s2", SKU: "NEG-DERIVADO", CountOnHand: 5},
		&entity.StockItem{ID: "s3", SKU: "SANO", CountOnHand: 5},
	)
	orders := newFakeOrderRepo()
	orders.unsynced = []*entity.LineItem{{OrderID: "o1", SKU: "NEG-DERIVADO", Quantity: 4}}
	alerter := &fakeAlerter{delivery: true}
	rec := newInventoryReconciler(stock, orders, alerter)

	summary, err := rec.Reconcile(context.Background(), []entity.RemoteStock{
		{SKU: "NEG-REMOTO", PendingQuantity: 0, AvailableQuantity: -2},
		{SKU: "NEG-DERIVADO", PendingQuantity: 0, AvailableQuantity: 3}, // 3-4 = -1
		{SKU: "SANO", PendingQuantity: 0, AvailableQuantity: 8},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Alerts)
	assert.Len(t, alerter.msgs, 2, "una alerta por registro ofensor, ni más ni menos")
	assert.Len(t, stock.updates, 3, "la alerta no bloquea la escritura")
}

// Si el canal de alertas falla, la corrida continúa: el fallo queda en el log,
// nunca detiene la reconciliación.
func TestInventoryReconcile_FalloDeAlertaNoDetieneLaCorrida(t *testing.T) {
	stock := newFakeStockRepo(&entity.StockItem{ID: "s1", SKU: "SKU-1", CountOnHand: 5})
	alerter := &fakeAlerter{delivery: false}
	rec := newInventoryReconciler(stock, newFakeOrderRepo(), alerter)

	summary, err := rec.Reconcile(context.Background(), []entity.RemoteStock{
		{SKU: "SKU-1", PendingQuantity: 0, AvailableQuantity: -1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, alerter.msgs, 1)
}
