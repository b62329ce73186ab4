package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// PullerConfig ventanas de consulta de los feeds con rango temporal.
type PullerConfig struct {
	OrdersWindow  time.Duration // hacia atrás desde ahora; por defecto 7 días
	ReturnsWindow time.Duration // por defecto 1 día
}

// Puller orquesta una corrida de pull: trae el feed, lo pasa por el motor
// correspondiente y persiste el resultado como SyncRun (estado + contadores +
// log). Cada corrida ejecuta como tarea asíncrona independiente del job runner.
type Puller struct {
	feed      FeedClient
	runs      repository.SyncRunRepository
	inventory *InventoryReconciler
	shipments *ShipmentReconciler
	returns   *ReturnsReconciler
	cfg       PullerConfig
	log       *logger.Logger
}

// NewPuller construye el orquestador de pulls.
func NewPuller(
	feed FeedClient,
	runs repository.SyncRunRepository,
	inventory *InventoryReconciler,
	shipments *ShipmentReconciler,
	returns *ReturnsReconciler,
	cfg PullerConfig,
	log *logger.Logger,
) *Puller {
	if cfg.OrdersWindow <= 0 {
		cfg.OrdersWindow = 7 * 24 * time.Hour
	}
	if cfg.ReturnsWindow <= 0 {
		cfg.ReturnsWindow = 24 * time.Hour
	}
	return &Puller{
		feed:      feed,
		runs:      runs,
		inventory: inventory,
		shipments: shipments,
		returns:   returns,
		cfg:       cfg,
		log:       log,
	}
}

// PullInventory corre un ciclo completo de reconciliación de inventario.
func (p *Puller) PullInventory(ctx context.Context) (*entity.SyncRun, error) {
	run, err := p.StartRun(ctx, entity.SyncKindInventory)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, run)
}

// PullOrders corre un ciclo completo de reconciliación de órdenes/envíos.
func (p *Puller) PullOrders(ctx context.Context) (*entity.SyncRun, error) {
	run, err := p.StartRun(ctx, entity.SyncKindOrders)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, run)
}

// PullReturns corre un ciclo completo de reconciliación de devoluciones.
func (p *Puller) PullReturns(ctx context.Context) (*entity.SyncRun, error) {
	run, err := p.StartRun(ctx, entity.SyncKindReturns)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, run)
}

// Execute ejecuta la corrida ya creada según su tipo y la cierra. Permite a los
// triggers HTTP responder con el ID de la corrida y ejecutar en segundo plano.
func (p *Puller) Execute(ctx context.Context, run *entity.SyncRun) (*entity.SyncRun, error) {
	switch run.Kind {
	case entity.SyncKindInventory:
		return p.executeInventory(ctx, run)
	case entity.SyncKindOrders:
		return p.executeOrders(ctx, run)
	case entity.SyncKindReturns:
		return p.executeReturns(ctx, run)
	default:
		return p.finishRun(ctx, run, 0, 0, "", fmt.Errorf("tipo de corrida desconocido: %s", run.Kind))
	}
}

func (p *Puller) executeInventory(ctx context.Context, run *entity.SyncRun) (*entity.SyncRun, error) {
	snapshots, err := p.feed.FetchInventory(ctx)
	if err != nil {
		return p.finishRun(ctx, run, 0, 0, "", err)
	}
	summary, err := p.inventory.Reconcile(ctx, snapshots)
	processed, failed := 0, 0
	var logText string
	if summary != nil {
		processed = summary.Processed
		logText = fmt.Sprintf("procesados=%d omitidos=%d alertas=%d", summary.Processed, summary.Skipped, summary.Alerts)
	}
	return p.finishRun(ctx, run, processed, failed, logText, err)
}

// executeOrders reconcilia envíos sobre la ventana de recepción configurada
// (desde hace OrdersWindow hasta mañana).
func (p *Puller) executeOrders(ctx context.Context, run *entity.SyncRun) (*entity.SyncRun, error) {
	now := time.Now()
	records, err := p.feed.FetchShipments(ctx, now.Add(-p.cfg.OrdersWindow), now.AddDate(0, 0, 1))
	if err != nil {
		return p.finishRun(ctx, run, 0, 0, "", err)
	}
	summary, err := p.shipments.Reconcile(ctx, records)
	processed, failed := 0, 0
	var logText string
	if summary != nil {
		processed = summary.Processed
		failed = summary.Failures
		logText = strings.Join(summary.Lines, "\n")
	}
	return p.finishRun(ctx, run, processed, failed, logText, err)
}

func (p *Puller) executeReturns(ctx context.Context, run *entity.SyncRun) (*entity.SyncRun, error) {
	now := time.Now()
	records, err := p.feed.FetchReturns(ctx, now.Add(-p.cfg.ReturnsWindow), now.AddDate(0, 0, 1))
	if err != nil {
		return p.finishRun(ctx, run, 0, 0, "", err)
	}
	summary, err := p.returns.Reconcile(ctx, records)
	processed := 0
	var logText string
	if summary != nil {
		processed = summary.Processed
		logText = fmt.Sprintf("procesados=%d omitidos=%d", summary.Processed, summary.Skipped)
	}
	return p.finishRun(ctx, run, processed, 0, logText, err)
}

// StartRun crea y persiste la corrida en estado running.
func (p *Puller) StartRun(ctx context.Context, kind string) (*entity.SyncRun, error) {
	run := &entity.SyncRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    entity.SyncRunRunning,
		StartedAt: time.Now(),
	}
	if err := p.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("crear sync run %s: %w", kind, err)
	}
	p.log.Info().Str("run", run.ID).Str("kind", kind).Msg("iniciando corrida de sincronización")
	return run, nil
}

// finishRun cierra la corrida con el estado derivado del resultado:
// error sin nada procesado ⇒ failed; fallas parciales ⇒ partial; si no ⇒ success.
func (p *Puller) finishRun(ctx context.Context, run *entity.SyncRun, processed, failed int, logText string, cause error) (*entity.SyncRun, error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Progress = 100
	run.Processed = processed
	run.Failed = failed
	run.Log = logText
	switch {
	case cause != nil && processed == 0:
		run.Status = entity.SyncRunFailed
		if logText != "" {
			run.Log = logText + "\n" + cause.Error()
		} else {
			run.Log = cause.Error()
		}
	case cause != nil || failed > 0:
		run.Status = entity.SyncRunPartial
		if cause != nil {
			run.Log = run.Log + "\n" + cause.Error()
		}
	default:
		run.Status = entity.SyncRunSuccess
	}

	if err := p.runs.Update(ctx, run); err != nil {
		p.log.Error().Err(err).Str("run", run.ID).Msg("no se pudo cerrar la corrida")
	}
	p.log.Info().
		Str("run", run.ID).
		Str("kind", run.Kind).
		Str("status", run.Status).
		Int("procesados", processed).
		Int("fallidos", failed).
		Msg("corrida de sincronización finalizada")
	return run, cause
}
