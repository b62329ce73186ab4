package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados locales de la orden relevantes para la sincronización.
const (
	OrderStateComplete = "complete"
	OrderStateCanceled = "canceled"
)

// Estados remotos (espejo de ShipmentStatus del proveedor) con semántica especial.
// Cualquier otro valor se copia literal en RemoteStatus sin efectos secundarios.
const (
	RemoteStatusReceived = "RECEIVED"
	RemoteStatusUpdated  = "UPDATED"
	RemoteStatusShipped  = "SHIPPED"
	RemoteStatusCanceled = "CANCELED"
	RemoteStatusReturned = "RETURNED"
)

// Order es la vista local de una orden frente al proveedor de fulfillment.
// PostedToRemote marca si el proveedor ya reconoce la orden; mientras sea false,
// sus line items cuentan como demanda no sincronizada en la reconciliación.
type Order struct {
	ID             string
	Number         string // ej. R123456789
	Email          string
	State          string
	RemoteStatus   string // espejo literal del shipment_status remoto
	PostedToRemote bool
	ShipAddress    Address
	LineItems      []LineItem
	UpdatedAt      time.Time
}

// LineItem línea de una orden: SKU, cantidad y precio unitario.
type LineItem struct {
	ID       string
	OrderID  string
	SKU      string
	Quantity int
	Price    decimal.Decimal
}

// Address dirección de envío de la orden.
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	Zipcode   string
	Phone     string
	StateID   *int
	CountryID *int
}

// Canceled indica si la orden ya está cancelada localmente.
// Los registros CANCELED repetidos del feed no deben re-disparar la cancelación.
func (o *Order) Canceled() bool {
	return o.State == OrderStateCanceled
}

// BlockedRemoteStatus indica si la orden está en un estado remoto terminal que
// prohíbe enviar más actualizaciones al proveedor.
func (o *Order) BlockedRemoteStatus() bool {
	switch o.RemoteStatus {
	case RemoteStatusCanceled, RemoteStatusShipped, RemoteStatusReturned:
		return true
	}
	return false
}

// CanUpdateRemote indica si la orden es elegible para operaciones de
// actualización salientes: ya fue enviada y no está en un estado remoto bloqueante.
func (o *Order) CanUpdateRemote() bool {
	return o.PostedToRemote && !o.BlockedRemoteStatus()
}

// Shipment envío asociado a una orden (1:1 con el proveedor).
type Shipment struct {
	ID          string
	OrderID     string
	State       string // pending | shipped
	Tracking    string
	TrackingURL string
	UpdatedAt   time.Time
}

// Estados del envío local.
const (
	ShipmentStatePending = "pending"
	ShipmentStateShipped = "shipped"
)

// Shipped indica si el envío ya alcanzó su estado terminal.
func (s *Shipment) Shipped() bool {
	return s.State == ShipmentStateShipped
}

// ReturnAuthorization autorización de devolución (RMA) creada desde el feed de returns.
type ReturnAuthorization struct {
	ID        string
	OrderID   string
	Reason    string
	State     string // authorized | received
	Amount    decimal.Decimal
	Items     []ReturnItem
	CreatedAt time.Time
}

// ReturnItem línea devuelta dentro de un RMA.
type ReturnItem struct {
	SKU      string
	Quantity int
}

// Estados del RMA.
const (
	ReturnStateAuthorized = "authorized"
	ReturnStateReceived   = "received"
)

// StateChange transición de estado de la orden registrada por el sistema host.
// Name identifica la máquina de estados que cambió ("order", "payment", "shipment").
type StateChange struct {
	ID            string
	OrderID       string
	Name          string
	PreviousState string
	NextState     string
	RemoteStatus  string // estado remoto que representa esta transición
	CreatedAt     time.Time
}

// StateRelevant indica si la transición debe propagarse al proveedor:
// solo cambios de las máquinas "payment" u "order" y nunca hacia awaiting_return.
func (sc *StateChange) StateRelevant() bool {
	if sc.Name != "payment" && sc.Name != "order" {
		return false
	}
	return sc.NextState != "awaiting_return"
}
