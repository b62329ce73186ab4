package shipwise

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/jhoicas/fulfillment-sync/internal/domain/entity"
)

// buildShipment arma el documento de alta de una orden en el proveedor.
func buildShipment(order *entity.Order, stateAbbr, countryISO string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	shipments := doc.CreateElement("Shipments")
	ship := shipments.CreateElement("Shipment")
	ship.CreateAttr("orderID", order.Number)

	writeAddress(ship, order.ShipAddress, stateAbbr, countryISO)

	items := ship.CreateElement("Items")
	for _, li := range order.LineItems {
		item := items.CreateElement("Item")
		item.CreateElement("SKU").SetText(li.SKU)
		item.CreateElement("Qty").SetText(strconv.Itoa(li.Quantity))
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar shipment %s: %w", order.Number, err)
	}
	return out, nil
}

// buildAddressUpdate arma el documento de actualización de dirección.
func buildAddressUpdate(order *entity.Order, stateAbbr, countryISO string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	update := doc.CreateElement("UpdateShipmentAddress")
	update.CreateAttr("orderID", order.Number)
	writeAddress(update, order.ShipAddress, stateAbbr, countryISO)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar cambio de dirección %s: %w", order.Number, err)
	}
	return out, nil
}

// buildContentsUpdate arma el documento de alta o baja de un ítem de la orden.
func buildContentsUpdate(orderNumber, sku string, qty int, add bool) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	update := doc.CreateElement("UpdateShipmentContents")
	update.CreateAttr("orderID", orderNumber)
	action := "remove"
	if add {
		action = "add"
	}
	item := update.CreateElement("Item")
	item.CreateAttr("action", action)
	item.CreateElement("SKU").SetText(sku)
	item.CreateElement("Qty").SetText(strconv.Itoa(qty))

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar cambio de contenidos %s: %w", orderNumber, err)
	}
	return out, nil
}

// buildStatusUpdate arma el documento de cambio de estado de la orden.
func buildStatusUpdate(order *entity.Order, change *entity.StateChange) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	update := doc.CreateElement("UpdateShipmentStatus")
	update.CreateAttr("orderID", order.Number)
	update.CreateElement("Status").SetText(change.RemoteStatus)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar cambio de estado %s: %w", order.Number, err)
	}
	return out, nil
}

// writeAddress vuelca los campos de dirección como hijos del elemento dado.
func writeAddress(parent *etree.Element, addr entity.Address, stateAbbr, countryISO string) {
	parent.CreateElement("FirstName").SetText(addr.FirstName)
	parent.CreateElement("LastName").SetText(addr.LastName)
	if addr.Company != "" {
		parent.CreateElement("Company").SetText(addr.Company)
	}
	parent.CreateElement("Address1").SetText(addr.Address1)
	if addr.Address2 != "" {
		parent.CreateElement("Address2").SetText(addr.Address2)
	}
	parent.CreateElement("City").SetText(addr.City)
	parent.CreateElement("State").SetText(stateAbbr)
	parent.CreateElement("PostalCode").SetText(addr.Zipcode)
	parent.CreateElement("Country").SetText(countryISO)
	if addr.Phone != "" {
		parent.CreateElement("Phone").SetText(addr.Phone)
	}
}
