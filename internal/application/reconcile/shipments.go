package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/jhoicas/fulfillment-sync/internal/application/orders"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// ShipmentReconciler actualiza el estado local de las órdenes a partir del feed
// de shipments del proveedor, y en estados terminales conduce el ciclo de vida
// del envío local (tracking + shipped + notificación al cliente).
type ShipmentReconciler struct {
	orderRepo repository.OrderRepository
	geoRepo   repository.GeoRepository
	orders    *orders.Service
	notifier  CustomerNotifier
	mailer    ReportMailer
	log       *logger.Logger
}

// NewShipmentReconciler construye el motor de órdenes/envíos.
func NewShipmentReconciler(
	orderRepo repository.OrderRepository,
	geoRepo repository.GeoRepository,
	orderSvc *orders.Service,
	notifier CustomerNotifier,
	mailer ReportMailer,
	log *logger.Logger,
) *ShipmentReconciler {
	return &ShipmentReconciler{
		orderRepo: orderRepo,
		geoRepo:   geoRepo,
		orders:    orderSvc,
		notifier:  notifier,
		mailer:    mailer,
		log:       log,
	}
}

// ShipmentSummary resultado de una corrida de shipments.
type ShipmentSummary struct {
	Processed int
	NotFound  int // registros del feed sin orden local, o viceversa
	Failures  int
	Report    *Report
	Lines     []string // líneas de diagnóstico para el log de la corrida
}

// shipmentBatch índices puros construidos antes de cualquier escritura.
type shipmentBatch struct {
	numbers   []string
	states    []string
	countries []string
	byNumber  map[string]entity.RemoteShipment
}

// indexShipments agrupa el lote por número de orden y colecciona los valores de
// estado/país para resolverlos en una sola consulta cada uno. Función pura.
func indexShipments(records []entity.RemoteShipment) shipmentBatch {
	b := shipmentBatch{byNumber: make(map[string]entity.RemoteShipment, len(records))}
	for _, rec := range records {
		b.numbers = append(b.numbers, rec.OrderNumber)
		b.states = append(b.states, rec.State)
		b.countries = append(b.countries, rec.Country)
		b.byNumber[rec.OrderNumber] = rec
	}
	return b
}

// Reconcile aplica un lote del feed de shipments.
//
// El lote completo se indexa antes de escribir; las órdenes se cargan con una
// sola consulta por el conjunto de números presentes, igual que las tablas de
// estados y países. La falla de un registro se captura en el reporte y el
// procesamiento continúa: atómico por registro, no por lote.
func (r *ShipmentReconciler) Reconcile(ctx context.Context, records []entity.RemoteShipment) (*ShipmentSummary, error) {
	batch := indexShipments(records)
	summary := &ShipmentSummary{Report: &Report{}}

	orderList, err := r.orderRepo.ListByNumbers(ctx, batch.numbers)
	if err != nil {
		return nil, fmt.Errorf("cargar órdenes del lote: %w", err)
	}

	states, err := r.geoRepo.StatesByAbbr(ctx, batch.states)
	if err != nil {
		return nil, fmt.Errorf("cargar estados: %w", err)
	}
	summary.Lines = append(summary.Lines, fmt.Sprintf("Encontrados %d estados", len(states)))

	countries, err := r.geoRepo.CountriesByISOName(ctx, batch.countries)
	if err != nil {
		return nil, fmt.Errorf("cargar países: %w", err)
	}
	summary.Lines = append(summary.Lines, fmt.Sprintf("Encontrados %d países", len(countries)))

	// Las escrituras del lote no deben re-disparar el hook de sincronización de
	// dirección: modo lote para toda la corrida, registros incluidos o fallidos.
	ctx = orders.WithBatchMode(ctx)

	for _, order := range orderList {
		rec, ok := batch.byNumber[order.Number]
		if !ok {
			// Presente localmente, ausente en el feed: se deja intacta.
			summary.NotFound++
			summary.Lines = append(summary.Lines, fmt.Sprintf("Orden %s no encontrada en el feed", order.Number))
			continue
		}
		delete(batch.byNumber, order.Number)

		if err := r.applyRecord(ctx, order, rec, states, countries, summary); err != nil {
			summary.Failures++
			failure := entity.SyncFailure{
				OrderID:     order.ID,
				OrderNumber: order.Number,
				Message:     err.Error(),
			}
			var pe *panicError
			if errors.As(err, &pe) {
				failure.Message = pe.msg
				failure.Stacktrace = pe.stack
			}
			summary.Report.Add(failure)
			continue
		}
		summary.Processed++
	}

	if !summary.Report.Empty() {
		if err := r.sendReport(summary.Report); err != nil {
			r.log.Error().Err(err).Msg("no se pudo enviar el reporte de fallas")
		}
	}
	return summary, nil
}

// panicError falla de registro originada en un panic, con su stack capturado.
type panicError struct {
	msg   string
	stack string
}

func (e *panicError) Error() string { return e.msg }

// applyRecord aplica un registro del feed a su orden. Un panic dentro del
// registro se convierte en falla del registro (con stack), nunca del lote.
func (r *ShipmentReconciler) applyRecord(
	ctx context.Context,
	order *entity.Order,
	rec entity.RemoteShipment,
	states map[string]*entity.State,
	countries map[string]*entity.Country,
	summary *ShipmentSummary,
) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{msg: fmt.Sprint(p), stack: string(debug.Stack())}
		}
	}()

	addr := entity.Address{
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Company:   rec.Company,
		Address1:  rec.Address1,
		Address2:  rec.Address2,
		City:      rec.City,
		Zipcode:   rec.PostalCode,
		Phone:     rec.Phone,
	}
	if st, ok := states[rec.State]; ok {
		addr.StateID = &st.ID
	} else {
		summary.Lines = append(summary.Lines, fmt.Sprintf("Asociación state %q no resuelta para orden %s", rec.State, order.Number))
	}
	if co, ok := countries[rec.Country]; ok {
		addr.CountryID = &co.ID
	} else {
		summary.Lines = append(summary.Lines, fmt.Sprintf("Asociación country %q no resuelta para orden %s", rec.Country, order.Number))
	}

	if err := r.orders.UpdateShipAddress(ctx, order, addr, rec.Status); err != nil {
		return err
	}

	switch rec.Status {
	case entity.RemoteStatusCanceled:
		// Exactamente una vez: Cancel es no-op sobre una orden ya cancelada.
		if err := r.orders.Cancel(ctx, order); err != nil {
			return err
		}
	case entity.RemoteStatusShipped:
		if err := r.applyShipped(ctx, order, rec); err != nil {
			return err
		}
	}
	order.RemoteStatus = rec.Status
	return nil
}

// applyShipped adjunta tracking, transiciona el envío a shipped y encola la
// notificación al cliente, exactamente una vez por envío.
func (r *ShipmentReconciler) applyShipped(ctx context.Context, order *entity.Order, rec entity.RemoteShipment) error {
	shipment, err := r.orderRepo.GetShipment(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("cargar envío: %w", err)
	}
	if shipment == nil {
		return fmt.Errorf("orden %s sin envío local", order.Number)
	}
	if shipment.Shipped() {
		// Registro SHIPPED repetido: no volver a transicionar ni notificar.
		return nil
	}
	if err := r.orderRepo.MarkShipped(ctx, shipment.ID, rec.Tracking, rec.TrackingURL); err != nil {
		return fmt.Errorf("marcar envío como shipped: %w", err)
	}
	r.notifier.EnqueueReviewEmail(order.ID)
	return nil
}

// sendReport materializa el CSV y lo envía a operadores.
func (r *ShipmentReconciler) sendReport(report *Report) error {
	content, err := report.CSV()
	if err != nil {
		return err
	}
	return r.mailer.SendReport(
		"OrdersPuller job completed with errors",
		"orders_puller_failures.csv",
		content,
	)
}
