package reconcile

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// Report acumula las fallas por registro de un lote. No participa en el control
// de flujo del lote: solo alimenta el artefacto CSV y el correo a operadores.
type Report struct {
	failures []entity.SyncFailure
}

// Add registra la falla de un registro del lote.
func (r *Report) Add(f entity.SyncFailure) {
	r.failures = append(r.failures, f)
}

// Empty indica si el lote terminó sin fallas. En ese caso no se genera reporte
// ni se envía correo.
func (r *Report) Empty() bool {
	return len(r.failures) == 0
}

// Len cantidad de fallas acumuladas.
func (r *Report) Len() int {
	return len(r.failures)
}

// Failures devuelve las fallas acumuladas.
func (r *Report) Failures() []entity.SyncFailure {
	return r.failures
}

// CSV materializa el reporte como archivo tabular con una fila por registro fallido.
func (r *Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"order_id", "order_number", "message", "stacktrace"}); err != nil {
		return nil, fmt.Errorf("escribir encabezado CSV: %w", err)
	}
	for _, f := range r.failures {
		if err := w.Write([]string{f.OrderID, f.OrderNumber, f.Message, f.Stacktrace}); err != nil {
			return nil, fmt.Errorf("escribir fila CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("volcar CSV: %w", err)
	}
	return buf.Bytes(), nil
}
