package outbound_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-sync/internal/application/outbound"
	"github.com/jhoicas/fulfillment-sync/internal/domain"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// fakeOrderRepo implementa solo lo que el dispatcher usa; el resto del puerto
// queda en la interfaz embebida (panic si algo inesperado lo llama).
type fakeOrderRepo struct {
	repository.OrderRepository
	mu           sync.Mutex
	orders       map[string]*entity.Order
	stateChanges map[string]*entity.StateChange
	posted       []string
	statusCalls  []string
}

func newFakeOrderRepo(orders ...*entity.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{
		orders:       make(map[string]*entity.Order),
		stateChanges: make(map[string]*entity.StateChange),
	}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) MarkPosted(_ context.Context, orderID, remoteStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[orderID]
	o.PostedToRemote = true
	o.RemoteStatus = remoteStatus
	r.posted = append(r.posted, orderID)
	return nil
}

func (r *fakeOrderRepo) UpdateRemoteStatus(_ context.Context, orderID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[orderID].RemoteStatus = status
	r.statusCalls = append(r.statusCalls, orderID+":"+status)
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

// fakeGateway responde con un resultado fijo y cuenta llamadas.
type fakeGateway struct {
	mu       sync.Mutex
	result   *outbound.Result
	delay    time.Duration
	posts    int
	address  int
	contents int
	status   int
}

func (g *fakeGateway) PostShipment(_ context.Context, _ *entity.Order) (*outbound.Result, error) {
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posts++
	return g.result, nil
}

func (g *fakeGateway) UpdateAddress(_ context.Context, _ *entity.Order) (*outbound.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.address++
	return g.result, nil
}

func (g *fakeGateway) UpdateContents(_ context.Context, _, _ string, _ int, _ bool) (*outbound.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contents++
	return g.result, nil
}

func (g *fakeGateway) UpdateStatus(_ context.Context, _ *entity.Order, _ *entity.StateChange) (*outbound.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status++
	return g.result, nil
}

func okResult() *outbound.Result { return &outbound.Result{Status: 200, Class: outbound.ClassOK} }

func unpostedOrder(id, number string) *entity.Order {
	return &entity.Order{ID: id, Number: number, State: entity.OrderStateComplete}
}

// ──────────────────────────────────────────────────────────────────────────────
// PostOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestPostOrder_ExitoMarcaReceived(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.PostOrder(context.Background(), "o1"))

	assert.Equal(t, 1, gw.posts)
	assert.True(t, order.PostedToRemote)
	assert.Equal(t, entity.RemoteStatusReceived, order.RemoteStatus)
}

func TestPostOrder_YaEnviadaEsNoOp(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.PostOrder(context.Background(), "o1"))
	assert.Equal(t, 0, gw.posts, "una orden ya enviada no debe tocar al proveedor")
}

// Disparos concurrentes del post de la misma orden colapsan en una sola
// llamada al proveedor.
func TestPostOrder_ConcurrenciaColapsaEnUnaLlamada(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: okResult(), delay: 50 * time.Millisecond}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.PostOrder(context.Background(), "o1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, gw.posts, "diez triggers simultáneos no deben crear diez envíos remotos")
	assert.Len(t, repo.posted, 1)
}

func TestPostOrder_ErrorBenignoEsExito(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: &outbound.Result{
		Status:    200,
		Class:     outbound.ClassInformational,
		ErrorText: "This shipment has already been canceled.",
	}}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.PostOrder(context.Background(), "o1"))
	assert.False(t, order.PostedToRemote, "un error benigno no marca la orden como posted")
}

func TestPostOrder_RechazoGenuinoPropaga(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: &outbound.Result{Status: 500, Class: outbound.ClassError, ErrorText: "boom"}}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	err := d.PostOrder(context.Background(), "o1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteRejected)
	assert.False(t, order.PostedToRemote)
}

// ──────────────────────────────────────────────────────────────────────────────
// Updates
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateAddress_SinPostPrevioEsNoOp(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateAddress(context.Background(), "o1"))
	assert.Equal(t, 0, gw.address)
}

func TestUpdateAddress_ExitoEspejaUpdated(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	repo := newFakeOrderRepo(order)
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateAddress(context.Background(), "o1"))
	assert.Equal(t, 1, gw.address)
	assert.Equal(t, entity.RemoteStatusUpdated, order.RemoteStatus)
}

func TestUpdateContents_CantidadNoPositivaEsNoOp(t *testing.T) {
	repo := newFakeOrderRepo(unpostedOrder("o1", "R100"))
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateContents(context.Background(), "o1", "SKU-A", 0, true))
	require.NoError(t, d.UpdateContents(context.Background(), "o1", "SKU-A", -2, false))
	assert.Equal(t, 0, gw.contents)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateStatus: elegibilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateStatus_TransicionRelevantePropaga(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	repo := newFakeOrderRepo(order)
	repo.stateChanges["sc1"] = &entity.StateChange{
		ID: "sc1", OrderID: "o1", Name: "payment", NextState: "paid", RemoteStatus: "PAID",
	}
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateStatus(context.Background(), "o1", "sc1"))
	assert.Equal(t, 1, gw.status)
	assert.Equal(t, "PAID", order.RemoteStatus)
}

func TestUpdateStatus_TransicionIrrelevanteEsNoOp(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	repo := newFakeOrderRepo(order)
	repo.stateChanges["sc1"] = &entity.StateChange{
		ID: "sc1", OrderID: "o1", Name: "shipment", NextState: "shipped", RemoteStatus: "SHIPPED",
	}
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateStatus(context.Background(), "o1", "sc1"))
	assert.Equal(t, 0, gw.status, "las máquinas distintas de payment/order no se propagan")
}

func TestUpdateStatus_OrdenBloqueadaEsNoOp(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	order.RemoteStatus = entity.RemoteStatusShipped
	repo := newFakeOrderRepo(order)
	repo.stateChanges["sc1"] = &entity.StateChange{
		ID: "sc1", OrderID: "o1", Name: "order", NextState: "resumed", RemoteStatus: "RESUMED",
	}
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateStatus(context.Background(), "o1", "sc1"))
	assert.Equal(t, 0, gw.status, "un estado remoto terminal bloquea cualquier update")
}

func TestUpdateStatus_DevolucionNoSePropone(t *testing.T) {
	order := unpostedOrder("o1", "R100")
	order.PostedToRemote = true
	repo := newFakeOrderRepo(order)
	repo.stateChanges["sc1"] = &entity.StateChange{
		ID: "sc1", OrderID: "o1", Name: "order", NextState: "returned", RemoteStatus: entity.RemoteStatusReturned,
	}
	gw := &fakeGateway{result: okResult()}
	d := outbound.NewDispatcher(repo, gw, testLogger())

	require.NoError(t, d.UpdateStatus(context.Background(), "o1", "sc1"))
	assert.Equal(t, 0, gw.status, "la devolución la conduce el feed de returns, no el push local")
}
