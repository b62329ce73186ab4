package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
)

var _ repository.GeoRepository = (*GeoRepo)(nil)

// GeoRepo tablas de consulta de estados y países sobre PostgreSQL.
type GeoRepo struct {
	q Querier
}

// NewGeoRepository construye el adaptador geográfico. Pasar pool o tx (Querier).
func NewGeoRepository(q Querier) *GeoRepo {
	return &GeoRepo{q: q}
}

// StatesByAbbr carga en una consulta los estados cuyas abreviaturas aparecen en
// el lote, indexados por abreviatura.
func (r *GeoRepo) StatesByAbbr(ctx context.Context, abbrs []string) (map[string]*entity.State, error) {
	out := make(map[string]*entity.State, len(abbrs))
	if len(abbrs) == 0 {
		return out, nil
	}
	query := `SELECT id, abbr, name FROM states WHERE abbr = ANY($1)`
	rows, err := r.q.Query(ctx, query, abbrs)
	if err != nil {
		return nil, fmt.Errorf("listar estados del lote: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.State
		if err := rows.Scan(&s.ID, &s.Abbr, &s.Name); err != nil {
			return nil, fmt.Errorf("scan estado: %w", err)
		}
		out[s.Abbr] = &s
	}
	return out, rows.Err()
}

// CountriesByISOName carga en una consulta los países del lote, indexados por
// nombre ISO.
func (r *GeoRepo) CountriesByISOName(ctx context.Context, names []string) (map[string]*entity.Country, error) {
	out := make(map[string]*entity.Country, len(names))
	if len(names) == 0 {
		return out, nil
	}
	query := `SELECT id, iso_name FROM countries WHERE iso_name = ANY($1)`
	rows, err := r.q.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("listar países del lote: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c entity.Country
		if err := rows.Scan(&c.ID, &c.ISOName); err != nil {
			return nil, fmt.Errorf("scan país: %w", err)
		}
		out[c.ISOName] = &c
	}
	return out, rows.Err()
}

// StateAbbrByID devuelve la abreviatura del estado.
func (r *GeoRepo) StateAbbrByID(ctx context.Context, id int) (string, error) {
	var abbr string
	err := r.q.QueryRow(ctx, `SELECT abbr FROM states WHERE id = $1`, id).Scan(&abbr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get estado %d: %w", id, err)
	}
	return abbr, nil
}

// CountryISOByID devuelve el nombre ISO del país.
func (r *GeoRepo) CountryISOByID(ctx context.Context, id int) (string, error) {
	var iso string
	err := r.q.QueryRow(ctx, `SELECT iso_name FROM countries WHERE id = $1`, id).Scan(&iso)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get país %d: %w", id, err)
	}
	return iso, nil
}
