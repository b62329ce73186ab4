package reconcile_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria para los motores de reconciliación
// ──────────────────────────────────────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// levelsUpdate escritura registrada por el fake de stock.
type levelsUpdate struct {
	sku    string
	onHold int
	onHand int
}

type fakeStockRepo struct {
	mu      sync.Mutex
	items   map[string]*entity.StockItem
	updates []levelsUpdate
}

func newFakeStockRepo(items ...*entity.StockItem) *fakeStockRepo {
	r := &fakeStockRepo{items: make(map[string]*entity.StockItem)}
	for _, it := range items {
		r.items[it.SKU] = it
	}
	return r
}

func (r *fakeStockRepo) GetBySKU(_ context.Context, sku string) (*entity.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *fakeStockRepo) UpdateLevels(_ context.Context, sku string, countOnHold, countOnHand int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[sku]
	if !ok {
		return domain.ErrNotFound
	}
	it.CountOnHold = countOnHold
	it.CountOnHand = countOnHand
	r.updates = append(r.updates, levelsUpdate{sku: sku, onHold: countOnHold, onHand: countOnHand})
	return nil
}

var _ repository.StockRepository = (*fakeStockRepo)(nil)

type markShippedCall struct {
	shipmentID  string
	tracking    string
	trackingURL string
}

type fakeOrderRepo struct {
	mu           sync.Mutex
	orders       map[string]*entity.Order // por ID
	shipments    map[string]*entity.Shipment // por orderID
	stateChanges map[string]*entity.StateChange
	unsynced     []*entity.LineItem
	returns      []*entity.ReturnAuthorization

	addressCalls  []string // orderIDs
	statusCalls   []string
	cancelCalls   []string
	shippedCalls  []markShippedCall
	postedCalls   []string

	// failAddressFor fuerza error en UpdateShipAddress para ese orderID.
	failAddressFor string
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{
		orders:       make(map[string]*entity.Order),
		shipments:    make(map[string]*entity.Shipment),
		stateChanges: make(map[string]*entity.StateChange),
	}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) addShipment(s *entity.Shipment) { r.shipments[s.OrderID] = s }

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) ListByNumbers(_ context.Context, numbers []string) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}
	var out []*entity.Order
	for _, o := range r.orders {
		if want[o.Number] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListUnsyncedLineItems(_ context.Context) ([]*entity.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unsynced, nil
}

func (r *fakeOrderRepo) UpdateRemoteStatus(_ context.Context, orderID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.RemoteStatus = status
	r.statusCalls = append(r.statusCalls, orderID)
	return nil
}

func (r *fakeOrderRepo) UpdateShipAddress(_ context.Context, orderID string, addr entity.Address, remoteStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if orderID == r.failAddressFor {
		return fmt.Errorf("fallo inyectado para %s", orderID)
	}
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.ShipAddress = addr
	o.RemoteStatus = remoteStatus
	r.addressCalls = append(r.addressCalls, orderID)
	return nil
}

func (r *fakeOrderRepo) MarkPosted(_ context.Context, orderID, remoteStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PostedToRemote = true
	o.RemoteStatus = remoteStatus
	r.postedCalls = append(r.postedCalls, orderID)
	return nil
}

func (r *fakeOrderRepo) Cancel(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.State = entity.OrderStateCanceled
	r.cancelCalls = append(r.cancelCalls, orderID)
	return nil
}

func (r *fakeOrderRepo) GetShipment(_ context.Context, orderID string) (*entity.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (r *fakeOrderRepo) MarkShipped(_ context.Context, shipmentID, tracking, trackingURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shipments {
		if s.ID == shipmentID {
			s.State = entity.ShipmentStateShipped
			s.Tracking = tracking
			s.TrackingURL = trackingURL
			r.shippedCalls = append(r.shippedCalls, markShippedCall{shipmentID, tracking, trackingURL})
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeOrderRepo) CreateReturn(_ context.Context, rma *entity.ReturnAuthorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rma.CreatedAt = time.Now()
	r.returns = append(r.returns, rma)
	return nil
}

func (r *fakeOrderRepo) GetStateChange(_ context.Context, id string) (*entity.StateChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.stateChanges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sc, nil
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

type fakeGeoRepo struct {
	states    map[string]*entity.State
	countries map[string]*entity.Country
}

func newFakeGeoRepo() *fakeGeoRepo {
	return &fakeGeoRepo{
		states: map[string]*entity.State{
			"CA": {ID: 10, Abbr: "CA", Name: "California"},
			"NY": {ID: 11, Abbr: "NY", Name: "New York"},
		},
		countries: map[string]*entity.Country{
			"US": {ID: 1, ISOName: "US"},
		},
	}
}

func (r *fakeGeoRepo) StatesByAbbr(_ context.Context, abbrs []string) (map[string]*entity.State, error) {
	out := make(map[string]*entity.State)
	for _, a := range abbrs {
		if s, ok := r.states[a]; ok {
			out[a] = s
		}
	}
	return out, nil
}

func (r *fakeGeoRepo) CountriesByISOName(_ context.Context, names []string) (map[string]*entity.Country, error) {
	out := make(map[string]*entity.Country)
	for _, n := range names {
		if c, ok := r.countries[n]; ok {
			out[n] = c
		}
	}
	return out, nil
}

func (r *fakeGeoRepo) StateAbbrByID(_ context.Context, id int) (string, error) {
	for _, s := range r.states {
		if s.ID == id {
			return s.Abbr, nil
		}
	}
	return "", domain.ErrNotFound
}

func (r *fakeGeoRepo) CountryISOByID(_ context.Context, id int) (string, error) {
	for _, c := range r.countries {
		if c.ID == id {
			return c.ISOName, nil
		}
	}
	return "", domain.ErrNotFound
}

var _ repository.GeoRepository = (*fakeGeoRepo)(nil)

type fakeAlerter struct {
	mu       sync.Mutex
	msgs     []string
	delivery bool
}

func (a *fakeAlerter) Notify(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
	return a.delivery
}

type sentReport struct {
	subject  string
	filename string
	content  []byte
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentReport
}

func (m *fakeMailer) SendReport(subject, filename string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentReport{subject, filename, content})
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (n *fakeNotifier) EnqueueReviewEmail(orderID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, orderID)
}

// fakeDispatcher registra los encolados reactivos del servicio de órdenes.
type fakeDispatcher struct {
	mu       sync.Mutex
	posts    []string
	address  []string
	contents []string
	status   []string
}

func (d *fakeDispatcher) EnqueuePostOrder(orderID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.posts = append(d.posts, orderID)
}

func (d *fakeDispatcher) EnqueueAddressUpdate(orderID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.address = append(d.address, orderID)
}

func (d *fakeDispatcher) EnqueueContentsUpdate(orderID, sku string, qty int, add bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contents = append(d.contents, fmt.Sprintf("%s:%s:%d:%t", orderID, sku, qty, add))
}

func (d *fakeDispatcher) EnqueueStatusUpdate(orderID, stateChangeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = append(d.status, orderID+":"+stateChangeID)
}
