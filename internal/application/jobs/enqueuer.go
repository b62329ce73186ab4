package jobs

import (
	"context"

	"github.com/jhoicas/fulfillment-sync/internal/application/orders"
	"github.com/jhoicas/fulfillment-sync/internal/application/outbound"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

var _ orders.Dispatcher = (*Enqueuer)(nil)

// Enqueuer adapta el dispatcher saliente al puerto de hooks de órdenes:
// cada hook se convierte en una tarea asíncrona del runner con reintentos.
// El dedup de posts concurrentes lo garantiza el propio dispatcher.
type Enqueuer struct {
	runner   *Runner
	dispatch *outbound.Dispatcher
	base     context.Context
	log      *logger.Logger
}

// NewEnqueuer construye el adaptador. base es el contexto de vida del servicio;
// las tareas encoladas sobreviven al request que las originó.
func NewEnqueuer(base context.Context, runner *Runner, dispatch *outbound.Dispatcher, log *logger.Logger) *Enqueuer {
	return &Enqueuer{runner: runner, dispatch: dispatch, base: base, log: log}
}

// EnqueuePostOrder encola el post inicial de la orden.
func (e *Enqueuer) EnqueuePostOrder(orderID string) {
	e.runner.Go(e.base, "order_poster", func(ctx context.Context) error {
		return e.dispatch.PostOrder(ctx, orderID)
	})
}

// EnqueueAddressUpdate encola la actualización de dirección.
func (e *Enqueuer) EnqueueAddressUpdate(orderID string) {
	e.runner.Go(e.base, "order_address_updater", func(ctx context.Context) error {
		return e.dispatch.UpdateAddress(ctx, orderID)
	})
}

// EnqueueContentsUpdate encola el alta/baja de contenidos.
func (e *Enqueuer) EnqueueContentsUpdate(orderID, sku string, qty int, add bool) {
	e.runner.Go(e.base, "order_contents_updater", func(ctx context.Context) error {
		return e.dispatch.UpdateContents(ctx, orderID, sku, qty, add)
	})
}

// EnqueueStatusUpdate encola la propagación de una transición de estado.
func (e *Enqueuer) EnqueueStatusUpdate(orderID, stateChangeID string) {
	e.runner.Go(e.base, "order_status_updater", func(ctx context.Context) error {
		return e.dispatch.UpdateStatus(ctx, orderID, stateChangeID)
	})
}
