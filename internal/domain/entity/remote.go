package entity

// Registros transitorios producidos por los feeds del proveedor.
// Se consumen una vez por ciclo de pull y no se persisten tal cual.

// RemoteStock nivel de stock reportado por el proveedor para un SKU.
// Campos numéricos ausentes o malformados se normalizan a cero en el parser.
type RemoteStock struct {
	SKU               string
	PendingQuantity   int
	AvailableQuantity int
}

// RemoteShipment estado de un envío reportado por el feed de shipments.
type RemoteShipment struct {
	OrderNumber string
	FirstName   string
	LastName    string
	Company     string
	Address1    string
	Address2    string
	City        string
	State       string // abreviatura (ej. CA)
	PostalCode  string
	Country     string // nombre ISO (ej. UNITED STATES)
	Phone       string
	Status      string // ShipmentStatus remoto, texto libre
	Tracking    string
	TrackingURL string
}

// RemoteReturn devolución reportada por el feed de returns.
type RemoteReturn struct {
	OrderNumber string
	Reason      string
	Status      string
	Items       []RemoteReturnItem
}

// RemoteReturnItem línea devuelta dentro de una devolución remota.
type RemoteReturnItem struct {
	SKU         string
	QtyReturned int
}

// State entrada de la tabla de consulta de estados/provincias.
type State struct {
	ID   int
	Abbr string
	Name string
}

// Country entrada de la tabla de consulta de países.
type Country struct {
	ID      int
	ISOName string
}
