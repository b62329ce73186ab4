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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de órdenes. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `
	id, number, email, state, remote_status, posted_to_remote,
	ship_first_name, ship_last_name, ship_company, ship_address1, ship_address2,
	ship_city, ship_zipcode, ship_phone, ship_state_id, ship_country_id, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Email, &o.State, &o.RemoteStatus, &o.PostedToRemote,
		&o.ShipAddress.FirstName, &o.ShipAddress.LastName, &o.ShipAddress.Company,
		&o.ShipAddress.Address1, &o.ShipAddress.Address2, &o.ShipAddress.City,
		&o.ShipAddress.Zipcode, &o.ShipAddress.Phone,
		&o.ShipAddress.StateID, &o.ShipAddress.CountryID, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID obtiene la orden con sus line items.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get orden %s: %w", id, err)
	}
	if err := r.loadLineItems(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByNumber obtiene la orden por su número visible con sus line items.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	order, err := scanOrder(r.q.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get orden %s: %w", number, err)
	}
	if err := r.loadLineItems(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByNumbers carga todas las órdenes del lote en dos consultas: cabeceras
// y line items. Nunca una consulta por registro del feed.
func (r *OrderRepo) ListByNumbers(ctx context.Context, numbers []string) ([]*entity.Order, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = ANY($1)`
	rows, err := r.q.Query(ctx, query, numbers)
	if err != nil {
		return nil, fmt.Errorf("listar órdenes del lote: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orden: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar órdenes: %w", err)
	}
	if err := r.loadLineItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadLineItems carga los items de todas las órdenes dadas en una consulta.
func (r *OrderRepo) loadLineItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	query := `
		SELECT id, order_id, sku, quantity, price
		FROM line_items WHERE order_id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("listar line items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li entity.LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.SKU, &li.Quantity, &li.Price); err != nil {
			return fmt.Errorf("scan line item: %w", err)
		}
		if o, ok := byID[li.OrderID]; ok {
			o.LineItems = append(o.LineItems, li)
		}
	}
	return rows.Err()
}

// ListUnsyncedLineItems devuelve los line items de las órdenes completas que el
// proveedor todavía no reconoce: la demanda local no sincronizada.
func (r *OrderRepo) ListUnsyncedLineItems(ctx context.Context) ([]*entity.LineItem, error) {
	query := `
		SELECT li.id, li.order_id, li.sku, li.quantity, li.price
		FROM line_items li
		JOIN orders o ON o.id = li.order_id
		WHERE o.state = $1 AND NOT o.posted_to_remote`
	rows, err := r.q.Query(ctx, query, entity.OrderStateComplete)
	if err != nil {
		return nil, fmt.Errorf("listar demanda no sincronizada: %w", err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		var li entity.LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.SKU, &li.Quantity, &li.Price); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, &li)
	}
	return items, rows.Err()
}

// UpdateRemoteStatus copia literal el estado remoto reportado por el proveedor.
func (r *OrderRepo) UpdateRemoteStatus(ctx context.Context, orderID, status string) error {
	query := `UPDATE orders SET remote_status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("update remote_status de %s: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// UpdateShipAddress escribe la dirección y el estado remoto en una sola sentencia.
// State y country solo se pisan cuando vienen resueltos.
func (r *OrderRepo) UpdateShipAddress(ctx context.Context, orderID string, addr entity.Address, remoteStatus string) error {
	query := `
		UPDATE orders
		SET ship_first_name = $2,
		    ship_last_name  = $3,
		    ship_company    = $4,
		    ship_address1   = $5,
		    ship_address2   = $6,
		    ship_city       = $7,
		    ship_zipcode    = $8,
		    ship_phone      = $9,
		    ship_state_id   = COALESCE($10, ship_state_id),
		    ship_country_id = COALESCE($11, ship_country_id),
		    remote_status   = $12,
		    updated_at      = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID,
		addr.FirstName, addr.LastName, addr.Company, addr.Address1, addr.Address2,
		addr.City, addr.Zipcode, addr.Phone, addr.StateID, addr.CountryID, remoteStatus,
	)
	if err != nil {
		return fmt.Errorf("update dirección de %s: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MarkPosted marca la orden como reconocida por el proveedor.
func (r *OrderRepo) MarkPosted(ctx context.Context, orderID, remoteStatus string) error {
	query := `
		UPDATE orders
		SET posted_to_remote = true, remote_status = $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, remoteStatus)
	if err != nil {
		return fmt.Errorf("marcar orden %s como enviada: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Cancel transiciona la orden a canceled. Repetir sobre una orden ya cancelada
// es un no-op.
func (r *OrderRepo) Cancel(ctx context.Context, orderID string) error {
	query := `
		UPDATE orders
		SET state = $2, updated_at = now()
		WHERE id = $1 AND state <> $2`
	_, err := r.q.Exec(ctx, query, orderID, entity.OrderStateCanceled)
	if err != nil {
		return fmt.Errorf("cancelar orden %s: %w", orderID, err)
	}
	return nil
}

// GetShipment obtiene el envío de la orden.
func (r *OrderRepo) GetShipment(ctx context.Context, orderID string) (*entity.Shipment, error) {
	query := `
		SELECT id, order_id, state, tracking, tracking_url, updated_at
		FROM shipments WHERE order_id = $1`
	var s entity.Shipment
	err := r.q.QueryRow(ctx, query, orderID).Scan(
		&s.ID, &s.OrderID, &s.State, &s.Tracking, &s.TrackingURL, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get shipment de %s: %w", orderID, err)
	}
	return &s, nil
}

// MarkShipped escribe tracking y estado shipped en una sola sentencia.
func (r *OrderRepo) MarkShipped(ctx context.Context, shipmentID, tracking, trackingURL string) error {
	query := `
		UPDATE shipments
		SET state = $2, tracking = $3, tracking_url = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, shipmentID, entity.ShipmentStateShipped, tracking, trackingURL)
	if err != nil {
		return fmt.Errorf("marcar shipment %s enviado: %w", shipmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateReturn persiste el RMA con sus líneas dentro de una transacción.
func (r *OrderRepo) CreateReturn(ctx context.Context, rma *entity.ReturnAuthorization) error {
	if rma.ID == "" {
		rma.ID = uuid.New().String()
	}
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx de RMA: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO return_authorizations (id, order_id, reason, state, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	if _, err := tx.Exec(ctx, query, rma.ID, rma.OrderID, rma.Reason, rma.State, rma.Amount); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert RMA: %w", err)
	}

	itemQuery := `
		INSERT INTO return_items (id, return_authorization_id, sku, quantity)
		VALUES ($1, $2, $3, $4)`
	for _, item := range rma.Items {
		if _, err := tx.Exec(ctx, itemQuery, uuid.New().String(), rma.ID, item.SKU, item.Quantity); err != nil {
			return fmt.Errorf("insert línea de RMA: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit de RMA: %w", err)
	}
	return nil
}

// GetStateChange obtiene una transición de estado registrada.
func (r *OrderRepo) GetStateChange(ctx context.Context, id string) (*entity.StateChange, error) {
	query := `
		SELECT id, order_id, name, previous_state, next_state, remote_status, created_at
		FROM state_changes WHERE id = $1`
	var sc entity.StateChange
	err := r.q.QueryRow(ctx, query, id).Scan(
		&sc.ID, &sc.OrderID, &sc.Name, &sc.PreviousState, &sc.NextState, &sc.RemoteStatus, &sc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get state change %s: %w", id, err)
	}
	return &sc, nil
}
