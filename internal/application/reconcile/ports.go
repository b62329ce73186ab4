package reconcile

import (
	"context"
	"time"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// Alerter puerto hacia el canal de alertas de operación (Slack).
// Notify nunca debe fallar: sin configuración es un no-op que devuelve false,
// y el llamador solo lo registra en el log, jamás lo escala.
type Alerter interface {
	Notify(msg string) bool
}

// ReportMailer puerto hacia el correo de reportes de falla por lote.
// Solo se invoca cuando el lote tuvo al menos una falla.
type ReportMailer interface {
	SendReport(subject, filename string, content []byte) error
}

// CustomerNotifier encola notificaciones post-envío al cliente (correo de
// review de producto). La entrega real es responsabilidad del sistema host.
type CustomerNotifier interface {
	EnqueueReviewEmail(orderID string)
}

// FeedClient puerto hacia los feeds del proveedor de fulfillment, ya parseados
// a registros transitorios. La construcción/parsing XML vive en infraestructura.
type FeedClient interface {
	FetchInventory(ctx context.Context) ([]entity.RemoteStock, error)
	FetchShipments(ctx context.Context, from, to time.Time) ([]entity.RemoteShipment, error)
	FetchReturns(ctx context.Context, from, to time.Time) ([]entity.RemoteReturn, error)
}
