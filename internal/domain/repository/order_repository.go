package repository

import (
	"context"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para órdenes y sus envíos.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByNumber(ctx context.Context, number string) (*entity.Order, error)
	// ListByNumbers carga en una sola consulta las órdenes cuyo número está en
	// el lote del feed. Nunca una consulta por registro.
	ListByNumbers(ctx context.Context, numbers []string) ([]*entity.Order, error)
	// ListUnsyncedLineItems devuelve los line items de todas las órdenes con
	// posted_to_remote = false: la demanda local que el proveedor aún no ve.
	ListUnsyncedLineItems(ctx context.Context) ([]*entity.LineItem, error)

	// UpdateRemoteStatus copia literal el shipment_status remoto.
	UpdateRemoteStatus(ctx context.Context, orderID, status string) error
	// UpdateShipAddress actualiza los campos de dirección presentes (state/country
	// solo si se resolvieron) junto con el estado remoto, en una sola escritura.
	UpdateShipAddress(ctx context.Context, orderID string, addr entity.Address, remoteStatus string) error
	// MarkPosted marca la orden como reconocida por el proveedor.
	MarkPosted(ctx context.Context, orderID, remoteStatus string) error
	// Cancel transiciona la orden a canceled. Debe ser idempotente.
	Cancel(ctx context.Context, orderID string) error

	GetShipment(ctx context.Context, orderID string) (*entity.Shipment, error)
	// MarkShipped escribe tracking, tracking_url y el estado shipped en una sola escritura.
	MarkShipped(ctx context.Context, shipmentID, tracking, trackingURL string) error

	CreateReturn(ctx context.Context, rma *entity.ReturnAuthorization) error
	GetStateChange(ctx context.Context, id string) (*entity.StateChange, error)
}

// GeoRepository tablas de consulta de estados y países, cargadas una vez por lote.
type GeoRepository interface {
	StatesByAbbr(ctx context.Context, abbrs []string) (map[string]*entity.State, error)
	CountriesByISOName(ctx context.Context, names []string) (map[string]*entity.Country, error)
	// StateAbbrByID y CountryISOByID resuelven la referencia inversa para
	// serializar direcciones en documentos salientes.
	StateAbbrByID(ctx context.Context, id int) (string, error)
	CountryISOByID(ctx context.Context, id int) (string, error)
}

// SyncRunRepository persistencia de corridas de sincronización.
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	GetByID(ctx context.Context, id string) (*entity.SyncRun, error)
	// Update sobreescribe status, progress, contadores y log de la corrida.
	Update(ctx context.Context, run *entity.SyncRun) error
}
