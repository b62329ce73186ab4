package shipwise

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// Endpoints de feed del proveedor.
const (
	pathInventory = "inventory.aspx"
	pathShipments = "shipments.aspx"
	pathReturns   = "returns.aspx"
)

const feedDateLayout = "2006-01-02"

var _ reconcile.FeedClient = (*FeedService)(nil)

// FeedService implementa el puerto de feeds del motor de reconciliación sobre
// el API XML del proveedor.
type FeedService struct {
	client *Client
}

// NewFeedService construye el servicio de feeds.
func NewFeedService(client *Client) *FeedService {
	return &FeedService{client: client}
}

// FetchInventory trae el snapshot completo de inventario del proveedor.
func (s *FeedService) FetchInventory(ctx context.Context) ([]entity.RemoteStock, error) {
	resp, err := s.client.Get(ctx, pathInventory, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("shipwise: feed de inventario respondió status %d", resp.Status)
	}
	return parseInventory(resp.Body)
}

// FetchShipments trae los envíos recibidos por el proveedor en la ventana dada.
func (s *FeedService) FetchShipments(ctx context.Context, from, to time.Time) ([]entity.RemoteShipment, error) {
	params := url.Values{}
	params.Set("startReceivedTimestamp", from.Format(feedDateLayout))
	params.Set("endReceivedTimestamp", to.Format(feedDateLayout))
	resp, err := s.client.Get(ctx, pathShipments, params)
	if err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("shipwise: feed de shipments respondió status %d", resp.Status)
	}
	return parseShipments(resp.Body)
}

// FetchReturns trae las devoluciones registradas en la ventana dada.
func (s *FeedService) FetchReturns(ctx context.Context, from, to time.Time) ([]entity.RemoteReturn, error) {
	params := url.Values{}
	params.Set("startTimestamp", from.Format(feedDateLayout))
	params.Set("endTimestamp", to.Format(feedDateLayout))
	resp, err := s.client.Get(ctx, pathReturns, params)
	if err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("shipwise: feed de returns respondió status %d", resp.Status)
	}
	return parseReturns(resp.Body)
}

// parseInventory parsea el feed de inventario:
//
//	<response>
//	  <products>
//	    <product id="78388" sku="PRODUCT-SKU-001">
//	      <pendingQuantity>0</pendingQuantity>
//	      <availableQuantity>19901</availableQuantity>
//	      ...
//	    </product>
//	  </products>
//	</response>
//
// Cantidades ausentes o malformadas se normalizan a cero, nunca son fatales.
func parseInventory(body []byte) ([]entity.RemoteStock, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("shipwise: parsear feed de inventario: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}
	var out []entity.RemoteStock
	for _, product := range root.FindElements("//products/product") {
		sku := strings.TrimSpace(product.SelectAttrValue("sku", ""))
		if sku == "" {
			continue
		}
		out = append(out, entity.RemoteStock{
			SKU:               sku,
			PendingQuantity:   childInt(product, "pendingQuantity"),
			AvailableQuantity: childInt(product, "availableQuantity"),
		})
	}
	return out, nil
}

// parseShipments parsea el feed de shipments (<Shipments><Shipment>...).
func parseShipments(body []byte) ([]entity.RemoteShipment, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("shipwise: parsear feed de shipments: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}
	var out []entity.RemoteShipment
	for _, ship := range root.FindElements("//Shipment") {
		orderNumber := childText(ship, "OrderID")
		if orderNumber == "" {
			continue
		}
		out = append(out, entity.RemoteShipment{
			OrderNumber: orderNumber,
			FirstName:   childText(ship, "FirstName"),
			LastName:    childText(ship, "LastName"),
			Company:     childText(ship, "Company"),
			Address1:    childText(ship, "Address1"),
			Address2:    childText(ship, "Address2"),
			City:        childText(ship, "City"),
			State:       childText(ship, "State"),
			PostalCode:  childText(ship, "PostalCode"),
			Country:     childText(ship, "Country"),
			Phone:       childText(ship, "Phone"),
			Status:      childText(ship, "ShipmentStatus"),
			Tracking:    childText(ship, "Tracking"),
			TrackingURL: childText(ship, "TrackingUrl"),
		})
	}
	return out, nil
}

// parseReturns parsea el feed de returns (<Returns><Return>... con <Items><Item>).
func parseReturns(body []byte) ([]entity.RemoteReturn, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("shipwise: parsear feed de returns: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}
	var out []entity.RemoteReturn
	for _, ret := range root.FindElements("//Return") {
		orderNumber := childText(ret, "OrderID")
		if orderNumber == "" {
			continue
		}
		rec := entity.RemoteReturn{
			OrderNumber: orderNumber,
			Reason:      childText(ret, "Reason"),
			Status:      childText(ret, "Status"),
		}
		for _, item := range ret.FindElements(".//Items/Item") {
			sku := childText(item, "SKU")
			if sku == "" {
				continue
			}
			rec.Items = append(rec.Items, entity.RemoteReturnItem{
				SKU:         sku,
				QtyReturned: childInt(item, "QtyReturned"),
			})
		}
		out = append(out, rec)
	}
	return out, nil
}

// childText texto del primer hijo con ese tag, recortado; vacío si no existe.
func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// childInt entero del primer hijo con ese tag; cero si falta o está malformado.
func childInt(el *etree.Element, tag string) int {
	n, err := strconv.Atoi(childText(el, tag))
	if err != nil {
		return 0
	}
	return n
}
