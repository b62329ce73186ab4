package shipwise

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/fulfillment-sync/internal/application/outbound"
)

// Mensajes de negocio del proveedor que no representan fallas reales: la
// operación ya ocurrió o el remoto está en un estado terminal que la vuelve
// irrelevante. Se tratan como éxito idempotente, nunca como error a reintentar.
var informationalMessages = []string{
	"This shipment has already been canceled.",
	"This shipment has already been returned.",
	"Shipment with status 'CANCELED' cannot be updated",
	"Shipment with status 'RETURNED' cannot be updated",
	"Shipment with status 'SHIPPED' cannot be updated",
}

// informationalForOrder mensajes benignos que incluyen el número de orden.
func informationalForOrder(orderNumber string) []string {
	return []string{
		fmt.Sprintf("Multiple shipments matching order ID '%s' found. Please update this shipment using the Shipwise console instead.", orderNumber),
	}
}

// Classify interpreta la respuesta XML del proveedor a una operación saliente
// y la reduce a un Result clasificado. El cuerpo esperado es:
//
//	<response>
//	  <success>true</success>
//	</response>
//
// o bien <errors><error>mensaje</error></errors> cuando el proveedor rechaza.
func Classify(resp *Response, orderNumber string) *outbound.Result {
	result := &outbound.Result{Status: resp.Status}

	if resp.Status > 399 {
		result.Class = outbound.ClassError
		result.ErrorText = fmt.Sprintf("proveedor respondió status %d", resp.Status)
		if msg := firstError(resp.Body); msg != "" {
			result.ErrorText = msg
		}
		return result
	}

	msg := firstError(resp.Body)
	if msg == "" {
		result.Class = outbound.ClassOK
		return result
	}

	result.ErrorText = msg
	if isInformational(msg, orderNumber) {
		result.Class = outbound.ClassInformational
	} else {
		result.Class = outbound.ClassError
	}
	return result
}

// isInformational es el único predicado que decide si un mensaje de error del
// proveedor es benigno.
func isInformational(msg, orderNumber string) bool {
	for _, known := range informationalMessages {
		if strings.Contains(msg, known) {
			return true
		}
	}
	for _, known := range informationalForOrder(orderNumber) {
		if strings.Contains(msg, known) {
			return true
		}
	}
	return false
}

// firstError extrae el primer <error> del cuerpo; vacío si el cuerpo no es XML
// o no reporta errores.
func firstError(body []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return ""
	}
	if el := doc.FindElement("//errors/error"); el != nil {
		return strings.TrimSpace(el.Text())
	}
	if el := doc.FindElement("//error"); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}
