package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrOrderNotFound    = errors.New("orden no encontrada")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrAlreadyPosted    = errors.New("la orden ya fue enviada al proveedor")
	ErrNotPosted        = errors.New("la orden aún no fue enviada al proveedor")
	ErrRemoteRejected   = errors.New("el proveedor rechazó la operación")
	ErrShipmentShipped  = errors.New("el envío ya está en estado shipped")
	ErrOrderCanceled    = errors.New("la orden ya está cancelada")
)
