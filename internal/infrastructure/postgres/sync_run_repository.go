package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
)

var _ repository.SyncRunRepository = (*SyncRunRepo)(nil)

// SyncRunRepo persistencia de corridas de sincronización sobre PostgreSQL.
type SyncRunRepo struct {
	q Querier
}

// NewSyncRunRepository construye el adaptador de corridas. Pasar pool o tx (Querier).
func NewSyncRunRepository(q Querier) *SyncRunRepo {
	return &SyncRunRepo{q: q}
}

// Create persiste la corrida recién iniciada.
func (r *SyncRunRepo) Create(ctx context.Context, run *entity.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sync_runs (id, kind, status, progress, processed, failed, log, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		run.ID, run.Kind, run.Status, run.Progress, run.Processed, run.Failed,
		run.Log, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert corrida: %w", err)
	}
	return nil
}

// GetByID obtiene una corrida.
func (r *SyncRunRepo) GetByID(ctx context.Context, id string) (*entity.SyncRun, error) {
	query := `
		SELECT id, kind, status, progress, processed, failed, log, started_at, finished_at
		FROM sync_runs WHERE id = $1`
	var run entity.SyncRun
	err := r.q.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Kind, &run.Status, &run.Progress, &run.Processed, &run.Failed,
		&run.Log, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get corrida %s: %w", id, err)
	}
	return &run, nil
}

// Update sobreescribe el estado observable de la corrida.
func (r *SyncRunRepo) Update(ctx context.Context, run *entity.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET status = $2, progress = $3, processed = $4, failed = $5, log = $6, finished_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		run.ID, run.Status, run.Progress, run.Processed, run.Failed, run.Log, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update corrida %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
