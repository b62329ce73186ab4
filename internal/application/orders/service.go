// Package orders concentra la ruta de escritura de órdenes. Toda mutación que
// en el sistema host dispararía una sincronización reactiva hacia el proveedor
// (cambio de dirección, cambio de contenidos, cambio de estado) pasa por aquí.
//
// La supresión de esos hooks durante una reconciliación por lotes se modela con
// un marcador de contexto explícito (WithBatchMode) en lugar de des-registrar
// hooks globales: el mismo efecto sin estado mutable compartido de proceso.
package orders

import (
	"context"
	"fmt"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

type batchModeKey struct{}

// WithBatchMode marca el contexto como "modo lote": las escrituras hechas con
// este contexto no encolan sincronizaciones reactivas hacia el proveedor.
func WithBatchMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchModeKey{}, true)
}

// InBatchMode indica si el contexto está en modo lote.
func InBatchMode(ctx context.Context) bool {
	v, _ := ctx.Value(batchModeKey{}).(bool)
	return v
}

// Dispatcher puerto de encolado de operaciones salientes hacia el proveedor.
// La implementación real (jobs + dispatcher saliente) vive fuera de este paquete.
type Dispatcher interface {
	EnqueuePostOrder(orderID string)
	EnqueueAddressUpdate(orderID string)
	EnqueueContentsUpdate(orderID, sku string, qty int, add bool)
	EnqueueStatusUpdate(orderID, stateChangeID string)
}

// Service ruta de escritura de órdenes con hooks reactivos de sincronización.
type Service struct {
	repo     repository.OrderRepository
	dispatch Dispatcher
	log      *logger.Logger
}

// NewService construye el servicio de órdenes.
func NewService(repo repository.OrderRepository, dispatch Dispatcher, log *logger.Logger) *Service {
	return &Service{repo: repo, dispatch: dispatch, log: log}
}

// UpdateShipAddress escribe la dirección de envío y el estado remoto de la orden.
// Fuera de modo lote, una orden elegible encola la actualización de dirección
// hacia el proveedor (hook reactivo del sistema host).
func (s *Service) UpdateShipAddress(ctx context.Context, order *entity.Order, addr entity.Address, remoteStatus string) error {
	if err := s.repo.UpdateShipAddress(ctx, order.ID, addr, remoteStatus); err != nil {
		return fmt.Errorf("actualizar dirección de orden %s: %w", order.Number, err)
	}
	if !InBatchMode(ctx) && order.CanUpdateRemote() {
		s.dispatch.EnqueueAddressUpdate(order.ID)
	}
	return nil
}

// UpdateRemoteStatus copia el estado remoto literal, sin efectos secundarios.
func (s *Service) UpdateRemoteStatus(ctx context.Context, order *entity.Order, status string) error {
	if err := s.repo.UpdateRemoteStatus(ctx, order.ID, status); err != nil {
		return fmt.Errorf("actualizar estado remoto de orden %s: %w", order.Number, err)
	}
	return nil
}

// Cancel cancela la orden localmente. Idempotente: una orden ya cancelada no
// vuelve a disparar el flujo de cancelación.
func (s *Service) Cancel(ctx context.Context, order *entity.Order) error {
	if order.Canceled() {
		return nil
	}
	if err := s.repo.Cancel(ctx, order.ID); err != nil {
		return fmt.Errorf("cancelar orden %s: %w", order.Number, err)
	}
	order.State = entity.OrderStateCanceled
	return nil
}

// LineItemChanged hook de cambio de cantidad en un line item: con delta positivo
// encola un alta de contenidos al proveedor, con delta negativo una baja.
// Solo aplica para órdenes elegibles y fuera de modo lote.
func (s *Service) LineItemChanged(ctx context.Context, order *entity.Order, sku string, delta int) {
	if InBatchMode(ctx) || !order.CanUpdateRemote() || delta == 0 {
		return
	}
	if delta > 0 {
		s.dispatch.EnqueueContentsUpdate(order.ID, sku, delta, true)
		return
	}
	s.dispatch.EnqueueContentsUpdate(order.ID, sku, -delta, false)
}

// StateChanged hook de transición de estado: encola la propagación al proveedor.
// El filtrado de relevancia y elegibilidad lo hace el dispatcher saliente.
func (s *Service) StateChanged(ctx context.Context, orderID, stateChangeID string) {
	if InBatchMode(ctx) {
		return
	}
	s.dispatch.EnqueueStatusUpdate(orderID, stateChangeID)
}

// OrderCompleted hook de finalización de checkout: encola el post inicial.
func (s *Service) OrderCompleted(ctx context.Context, orderID string) {
	if InBatchMode(ctx) {
		return
	}
	s.dispatch.EnqueuePostOrder(orderID)
}
