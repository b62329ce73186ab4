package jobs

import (
	"context"

	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
)

// ReviewSender envía el correo de reseña de una orden. Lo implementa el mailer.
type ReviewSender interface {
	SendReviewEmail(ctx context.Context, orderID string) error
}

var _ reconcile.CustomerNotifier = (*ReviewEnqueuer)(nil)

// ReviewEnqueuer adapta el envío de correos de reseña al puerto fire-and-forget
// de la reconciliación: cada notificación es una tarea del runner con reintentos.
type ReviewEnqueuer struct {
	runner *Runner
	sender ReviewSender
	base   context.Context
}

// NewReviewEnqueuer construye el adaptador sobre el contexto de vida del servicio.
func NewReviewEnqueuer(base context.Context, runner *Runner, sender ReviewSender) *ReviewEnqueuer {
	return &ReviewEnqueuer{runner: runner, sender: sender, base: base}
}

// EnqueueReviewEmail encola el correo de reseña de la orden.
func (e *ReviewEnqueuer) EnqueueReviewEmail(orderID string) {
	e.runner.Go(e.base, "review_email", func(ctx context.Context) error {
		return e.sender.SendReviewEmail(ctx, orderID)
	})
}
