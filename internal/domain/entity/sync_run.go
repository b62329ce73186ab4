package entity

import "time"

// Tipos de corrida de sincronización.
const (
	SyncKindInventory = "inventory"
	SyncKindOrders    = "orders"
	SyncKindReturns   = "returns"
)

// Estados de una corrida.
const (
	SyncRunRunning = "running"
	SyncRunSuccess = "success"
	SyncRunPartial = "partial"
	SyncRunFailed  = "failed"
)

// SyncRun registro persistente de una corrida de sincronización (pull).
// Progress va de 0 a 100; Log acumula las líneas de diagnóstico de la corrida.
type SyncRun struct {
	ID         string
	Kind       string
	Status     string
	Progress   int
	Processed  int
	Failed     int
	Log        string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// SyncFailure fila del reporte de fallas de un lote: un registro que no pudo
// aplicarse. No participa en control de flujo; solo alimenta el reporte CSV.
type SyncFailure struct {
	OrderID     string
	OrderNumber string
	Message     string
	Stacktrace  string
}
