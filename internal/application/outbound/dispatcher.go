// Package outbound propaga mutaciones locales de órdenes hacia el proveedor de
// fulfillment: post inicial, cambio de dirección, cambio de contenidos y cambio
// de estado, con dedup de llamadas concurrentes y reintentos acotados a cargo
// del job runner.
package outbound

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// ResultClass clasificación estructurada de la respuesta del proveedor.
// Reemplaza la comparación dispersa de frases del vendor: la tabla literal de
// mensajes "que no son error" vive detrás del único predicado de la pasarela.
type ResultClass int

const (
	// ClassOK operación aceptada por el proveedor.
	ClassOK ResultClass = iota
	// ClassInformational error de negocio benigno (envío ya cancelado/devuelto,
	// transición prohibida, múltiples envíos): se trata como éxito idempotente.
	ClassInformational
	// ClassError error genuino: propaga y dispara la política de reintentos.
	ClassError
)

// Result respuesta ya clasificada de una llamada saliente.
type Result struct {
	Status    int
	ErrorText string
	Class     ResultClass
}

// Gateway puerto hacia el transporte del proveedor. Construcción de documentos,
// envío HTTP y clasificación de la respuesta viven en infraestructura; el
// dispatcher solo razona sobre el Result clasificado.
type Gateway interface {
	PostShipment(ctx context.Context, order *entity.Order) (*Result, error)
	UpdateAddress(ctx context.Context, order *entity.Order) (*Result, error)
	UpdateContents(ctx context.Context, orderNumber, sku string, qty int, add bool) (*Result, error)
	UpdateStatus(ctx context.Context, order *entity.Order, change *entity.StateChange) (*Result, error)
}

// Dispatcher operaciones salientes por orden.
type Dispatcher struct {
	orderRepo repository.OrderRepository
	gw        Gateway
	group     singleflight.Group
	log       *logger.Logger
}

// NewDispatcher construye el dispatcher saliente.
func NewDispatcher(orderRepo repository.OrderRepository, gw Gateway, log *logger.Logger) *Dispatcher {
	return &Dispatcher{orderRepo: orderRepo, gw: gw, log: log}
}

// PostOrder envía la orden al proveedor por primera vez.
//
// Disparos concurrentes para la misma orden colapsan en una sola llamada en
// vuelo (singleflight): dos triggers simultáneos no crean dos envíos remotos.
// Una orden ya marcada como posted es un no-op idempotente.
func (d *Dispatcher) PostOrder(ctx context.Context, orderID string) error {
	_, err, _ := d.group.Do("post:"+orderID, func() (interface{}, error) {
		return nil, d.postOrder(ctx, orderID)
	})
	return err
}

func (d *Dispatcher) postOrder(ctx context.Context, orderID string) error {
	order, err := d.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cargar orden %s: %w", orderID, err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if order.PostedToRemote {
		d.log.Debug().Str("orden", order.Number).Msg("orden ya enviada al proveedor, post omitido")
		return nil
	}

	d.log.Info().Str("orden", order.Number).Msg("enviando orden al proveedor")
	res, err := d.gw.PostShipment(ctx, order)
	if err != nil {
		return fmt.Errorf("post de orden %s: %w", order.Number, err)
	}

	switch res.Class {
	case ClassOK:
		if err := d.orderRepo.MarkPosted(ctx, order.ID, entity.RemoteStatusReceived); err != nil {
			return fmt.Errorf("marcar orden %s como posted: %w", order.Number, err)
		}
		return nil
	case ClassInformational:
		// El efecto remoto ya ocurrió o es irrelevante: éxito, sin reintento.
		d.log.Warn().Str("orden", order.Number).Str("detalle", res.ErrorText).Msg("proveedor respondió error benigno al post")
		return nil
	default:
		return fmt.Errorf("post de orden %s: %w (status %d: %s)", order.Number, domain.ErrRemoteRejected, res.Status, res.ErrorText)
	}
}

// UpdateAddress reenvía la dirección de envío. Idempotente: el mismo payload
// puede ir dos veces sin daño. Solo aplica a órdenes ya enviadas.
func (d *Dispatcher) UpdateAddress(ctx context.Context, orderID string) error {
	order, err := d.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cargar orden %s: %w", orderID, err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if !order.PostedToRemote {
		d.log.Debug().Str("orden", order.Number).Msg("orden sin post previo, actualización de dirección omitida")
		return nil
	}

	res, err := d.gw.UpdateAddress(ctx, order)
	if err != nil {
		return fmt.Errorf("actualizar dirección de %s: %w", order.Number, err)
	}
	if res.Class == ClassError {
		return fmt.Errorf("actualizar dirección de %s: %w (status %d: %s)", order.Number, domain.ErrRemoteRejected, res.Status, res.ErrorText)
	}
	if res.Class == ClassOK {
		if err := d.orderRepo.UpdateRemoteStatus(ctx, order.ID, entity.RemoteStatusUpdated); err != nil {
			return fmt.Errorf("marcar orden %s como updated: %w", order.Number, err)
		}
	}
	return nil
}

// UpdateContents altas/bajas de contenidos en el envío remoto. Solo se invoca
// con delta estrictamente positivo; cero o negativo es un no-op.
func (d *Dispatcher) UpdateContents(ctx context.Context, orderID, sku string, qty int, add bool) error {
	if qty <= 0 {
		return nil
	}
	order, err := d.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cargar orden %s: %w", orderID, err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}

	res, err := d.gw.UpdateContents(ctx, order.Number, sku, qty, add)
	if err != nil {
		return fmt.Errorf("actualizar contenidos de %s: %w", order.Number, err)
	}
	if res.Class == ClassError {
		return fmt.Errorf("actualizar contenidos de %s: %w (status %d: %s)", order.Number, domain.ErrRemoteRejected, res.Status, res.ErrorText)
	}
	if res.Class == ClassOK {
		if err := d.orderRepo.UpdateRemoteStatus(ctx, order.ID, entity.RemoteStatusUpdated); err != nil {
			return fmt.Errorf("marcar orden %s como updated: %w", order.Number, err)
		}
	}
	return nil
}

// UpdateStatus propaga una transición de estado local al proveedor, solo si la
// transición es relevante y la orden sigue siendo elegible (posted y sin estado
// remoto bloqueante). Todo lo demás es "nada que hacer".
func (d *Dispatcher) UpdateStatus(ctx context.Context, orderID, stateChangeID string) error {
	order, err := d.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cargar orden %s: %w", orderID, err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	change, err := d.orderRepo.GetStateChange(ctx, stateChangeID)
	if err != nil {
		return fmt.Errorf("cargar state change %s: %w", stateChangeID, err)
	}
	if change == nil {
		return domain.ErrNotFound
	}

	if !d.shouldUpdateStatus(order, change) {
		d.log.Debug().Str("orden", order.Number).Str("transición", change.NextState).Msg("transición no propagable, nada que hacer")
		return nil
	}

	res, err := d.gw.UpdateStatus(ctx, order, change)
	if err != nil {
		return fmt.Errorf("actualizar estado de %s: %w", order.Number, err)
	}
	if res.Class == ClassError {
		return fmt.Errorf("actualizar estado de %s: %w (status %d: %s)", order.Number, domain.ErrRemoteRejected, res.Status, res.ErrorText)
	}
	if res.Class == ClassOK {
		if err := d.orderRepo.UpdateRemoteStatus(ctx, order.ID, change.RemoteStatus); err != nil {
			return fmt.Errorf("espejar estado remoto de %s: %w", order.Number, err)
		}
	}
	return nil
}

// shouldUpdateStatus elegibilidad del update de estado: transición relevante,
// orden elegible, y el estado destino no es una devolución (esa la conduce el
// feed de returns, no el push local).
func (d *Dispatcher) shouldUpdateStatus(order *entity.Order, change *entity.StateChange) bool {
	if !change.StateRelevant() {
		return false
	}
	if !order.CanUpdateRemote() {
		return false
	}
	return change.RemoteStatus != entity.RemoteStatusReturned
}
