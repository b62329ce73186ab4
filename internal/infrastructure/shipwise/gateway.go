package shipwise

import (
	"context"
	"fmt"

	"github.com/jhoicas/fulfillment-sync/internal/application/outbound"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
)

// Endpoints de escritura del proveedor.
const (
	pathPostShipments  = "post_shipments.aspx"
	pathUpdateAddress  = "update_shipment_address.aspx"
	pathUpdateContents = "update_shipment_contents.aspx"
	pathUpdateStatus   = "update_shipment_status.aspx"
)

var _ outbound.Gateway = (*Gateway)(nil)

// Gateway implementa el puerto saliente del dispatcher: construye el documento
// XML de cada operación, lo envía al endpoint correspondiente y devuelve la
// respuesta ya clasificada.
type Gateway struct {
	client  *Client
	geoRepo repository.GeoRepository
}

// NewGateway construye la pasarela saliente.
func NewGateway(client *Client, geoRepo repository.GeoRepository) *Gateway {
	return &Gateway{client: client, geoRepo: geoRepo}
}

// PostShipment da de alta la orden en el proveedor.
func (g *Gateway) PostShipment(ctx context.Context, order *entity.Order) (*outbound.Result, error) {
	stateAbbr, countryISO, err := g.resolveGeo(ctx, order.ShipAddress)
	if err != nil {
		return nil, err
	}
	doc, err := buildShipment(order, stateAbbr, countryISO)
	if err != nil {
		return nil, err
	}
	return g.post(ctx, pathPostShipments, doc, order.Number)
}

// UpdateAddress propaga el cambio de dirección de envío.
func (g *Gateway) UpdateAddress(ctx context.Context, order *entity.Order) (*outbound.Result, error) {
	stateAbbr, countryISO, err := g.resolveGeo(ctx, order.ShipAddress)
	if err != nil {
		return nil, err
	}
	doc, err := buildAddressUpdate(order, stateAbbr, countryISO)
	if err != nil {
		return nil, err
	}
	return g.post(ctx, pathUpdateAddress, doc, order.Number)
}

// UpdateContents agrega o quita un ítem de la orden remota.
func (g *Gateway) UpdateContents(ctx context.Context, orderNumber, sku string, qty int, add bool) (*outbound.Result, error) {
	doc, err := buildContentsUpdate(orderNumber, sku, qty, add)
	if err != nil {
		return nil, err
	}
	return g.post(ctx, pathUpdateContents, doc, orderNumber)
}

// UpdateStatus propaga una transición de estado de la orden.
func (g *Gateway) UpdateStatus(ctx context.Context, order *entity.Order, change *entity.StateChange) (*outbound.Result, error) {
	doc, err := buildStatusUpdate(order, change)
	if err != nil {
		return nil, err
	}
	return g.post(ctx, pathUpdateStatus, doc, order.Number)
}

func (g *Gateway) post(ctx context.Context, path string, doc []byte, orderNumber string) (*outbound.Result, error) {
	resp, err := g.client.Post(ctx, path, doc)
	if err != nil {
		return nil, err
	}
	return Classify(resp, orderNumber), nil
}

// resolveGeo traduce las referencias de estado y país de la dirección a los
// códigos que espera el proveedor. Referencias ausentes serializan vacío.
func (g *Gateway) resolveGeo(ctx context.Context, addr entity.Address) (stateAbbr, countryISO string, err error) {
	if addr.StateID != nil {
		stateAbbr, err = g.geoRepo.StateAbbrByID(ctx, *addr.StateID)
		if err != nil {
			return "", "", fmt.Errorf("resolver estado %d: %w", *addr.StateID, err)
		}
	}
	if addr.CountryID != nil {
		countryISO, err = g.geoRepo.CountryISOByID(ctx, *addr.CountryID)
		if err != nil {
			return "", "", fmt.Errorf("resolver país %d: %w", *addr.CountryID, err)
		}
	}
	return stateAbbr, countryISO, nil
}
