package entity

import "time"

// StockItem representa el stock de un SKU en la bodega del proveedor de fulfillment.
// Se asume una sola ubicación de stock (la del proveedor); la tabla solo la muta
// el motor de reconciliación de inventario.
//
// CountOnHand puede quedar negativo de forma transitoria: es una condición de
// alerta (oversell), no un error fatal.
type StockItem struct {
	ID          string
	ProductID   string
	SKU         string // único
	CountOnHand int
	CountOnHold int
	UpdatedAt   time.Time
}

// SameLevels indica si los niveles remotos coinciden exactamente con los locales.
// Es el fast-path de idempotencia del motor: si coinciden, no hay nada que escribir.
func (s *StockItem) SameLevels(pending, available int) bool {
	return s.CountOnHold == pending && s.CountOnHand == available
}
