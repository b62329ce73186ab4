package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fulfillment-sync/internal/application/jobs"
	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
)

// SyncHandler expone el disparo manual de corridas de sincronización y la
// consulta de su estado.
type SyncHandler struct {
	puller *reconcile.Puller
	runs   repository.SyncRunRepository
	runner *jobs.Runner
	base   context.Context
}

// NewSyncHandler construye el handler. base es el contexto de vida del servicio:
// las corridas disparadas sobreviven al request.
func NewSyncHandler(base context.Context, puller *reconcile.Puller, runs repository.SyncRunRepository, runner *jobs.Runner) *SyncHandler {
	return &SyncHandler{puller: puller, runs: runs, runner: runner, base: base}
}

// TriggerInventory dispara una corrida de inventario.
func (h *SyncHandler) TriggerInventory(c *fiber.Ctx) error {
	return h.trigger(c, entity.SyncKindInventory)
}

// TriggerOrders dispara una corrida de órdenes/envíos.
func (h *SyncHandler) TriggerOrders(c *fiber.Ctx) error {
	return h.trigger(c, entity.SyncKindOrders)
}

// TriggerReturns dispara una corrida de devoluciones.
func (h *SyncHandler) TriggerReturns(c *fiber.Ctx) error {
	return h.trigger(c, entity.SyncKindReturns)
}

// trigger crea la corrida, la encola en el runner y responde 202 con su ID.
func (h *SyncHandler) trigger(c *fiber.Ctx, kind string) error {
	run, err := h.puller.StartRun(c.Context(), kind)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "SYNC_START_FAILED", Message: "no se pudo iniciar la corrida"})
	}
	h.runner.Go(h.base, "sync_"+kind, func(ctx context.Context) error {
		_, err := h.puller.Execute(ctx, run)
		return err
	})
	return c.Status(fiber.StatusAccepted).JSON(TriggerResponse{
		RunID:  run.ID,
		Kind:   run.Kind,
		Status: run.Status,
	})
}

// GetRun devuelve el estado de una corrida.
func (h *SyncHandler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	run, err := h.runs.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "RUN_NOT_FOUND", Message: "corrida no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "RUN_LOOKUP_FAILED", Message: "no se pudo consultar la corrida"})
	}
	return c.JSON(toSyncRunResponse(run))
}

func toSyncRunResponse(run *entity.SyncRun) SyncRunResponse {
	out := SyncRunResponse{
		ID:        run.ID,
		Kind:      run.Kind,
		Status:    run.Status,
		Progress:  run.Progress,
		Processed: run.Processed,
		Failed:    run.Failed,
		Log:       run.Log,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return out
}
