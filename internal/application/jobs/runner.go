// Package jobs es el runner de tareas del servicio: disparadores periódicos
// para los pulls y ejecución asíncrona por entidad con reintentos acotados.
// Deliberadamente delgado: la lógica de negocio es síncrona y bloqueante, y
// cancelación/timeout los gobierna el contexto del runner.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// DefaultRetries reintentos por defecto de una tarea asíncrona fallida.
const DefaultRetries = 3

// Runner agenda tareas periódicas y ejecuta tareas puntuales en goroutines.
type Runner struct {
	log     *logger.Logger
	retries int
	backoff time.Duration
	wg      sync.WaitGroup
}

// NewRunner construye el runner. retries <= 0 usa DefaultRetries.
func NewRunner(log *logger.Logger, retries int) *Runner {
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &Runner{log: log, retries: retries, backoff: 5 * time.Second}
}

// Every ejecuta fn cada interval hasta que el contexto se cancele. El primer
// disparo ocurre al cumplirse el primer intervalo, no inmediatamente.
func (r *Runner) Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx, name, fn)
			}
		}
	}()
}

// Go ejecuta fn en una goroutine con la política de reintentos del runner.
// Un fallo tras agotar los reintentos queda como tarea fallida en el log;
// la visibilidad posterior es responsabilidad del operador.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		var err error
		for attempt := 1; attempt <= r.retries; attempt++ {
			if err = r.runOnce(ctx, name, fn); err == nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.backoff * time.Duration(attempt)):
			}
		}
		r.log.Error().Err(err).Str("job", name).Int("intentos", r.retries).Msg("tarea fallida tras agotar reintentos")
	}()
}

// Wait bloquea hasta que terminen todas las tareas en curso.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// runOnce ejecuta una tarea con el log de inicio/fin del runner y recuperación
// de pánicos, al estilo del resto de los workers.
func (r *Runner) runOnce(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("job", name).Interface("panic", p).Msg("pánico en tarea")
			err = fmt.Errorf("pánico en tarea %s: %v", name, p)
		}
	}()
	r.log.Info().Str("job", name).Msg("iniciando tarea")
	if err = fn(ctx); err != nil {
		r.log.Error().Err(err).Str("job", name).Msg("tarea terminó con error")
		return err
	}
	r.log.Info().Str("job", name).Msg("tarea finalizada")
	return nil
}
